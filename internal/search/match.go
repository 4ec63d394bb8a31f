package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Match reports whether query occurs in title, ignoring case. Both sides are
// case folded (not just lowered) so "STRASSE" matches "straße".
func Match(title, query string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(title), folder.String(query))
}

// Filter returns the records whose title contains query, in their original
// order. An empty query returns a copy of items.
func Filter[T any](items []T, query string, title func(T) string) []T {
	if query == "" {
		return clone(items)
	}
	folder := cases.Fold()
	needle := folder.String(query)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(folder.String(title(item)), needle) {
			out = append(out, item)
		}
	}
	return out
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
