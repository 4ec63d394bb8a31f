package logtail

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when one file is written, created, removed or renamed.
// Signals coalesce: any number of events between two receives from
// Changes is delivered once.
type Watcher struct {
	fsw     *fsnotify.Watcher
	target  string
	changes chan struct{}
}

// Watch starts watching path. The parent directory is watched so the file
// may be created, rotated or replaced after Watch returns.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:     fsw,
		target:  filepath.Base(path),
		changes: make(chan struct{}, 1),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per burst of events on the file.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher. Changes is never closed.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.target || event.Op&relevant == 0 {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("log watcher: %v", err)
		}
	}
}
