// Package logtail reads stall's own log file for the in-app log view.
//
// # Reading Log Files
//
// Read uses a ring buffer to extract the last maxLines from a file in one
// sequential pass with O(maxLines) memory.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// # Following
//
// Tail remembers the byte offset it has consumed. Each Poll returns only
// complete lines appended since the previous call and reports a reset when
// the file was truncated or removed. A line still being written stays
// unread until its newline arrives.
//
// # Watching
//
// Watch uses fsnotify on the file's directory and signals on Changes after
// writes, so the view polls only when there is something new.
//
// # Classification
//
// The standard library logger has no level field. Classify maps lines to
// info, warning and error by keyword so the view can color them.
package logtail
