package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/search"
)

// viewFeed hands search views from controller callbacks, which may run on
// timer goroutines, to the program loop. It holds only the newest view so a
// burst of changes costs one message.
type viewFeed struct {
	mu        sync.Mutex
	latest    search.View[market.Item]
	pending   bool
	delivered uint64
	signal    chan struct{}
}

func newViewFeed() *viewFeed {
	return &viewFeed{signal: make(chan struct{}, 1)}
}

// push records v unless a newer view was already recorded or delivered.
func (f *viewFeed) push(v search.View[market.Item]) {
	f.mu.Lock()
	if v.Revision <= f.delivered || (f.pending && v.Revision <= f.latest.Revision) {
		f.mu.Unlock()
		return
	}
	f.latest = v
	f.pending = true
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// take returns the pending view, if any, and marks it delivered.
func (f *viewFeed) take() (search.View[market.Item], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pending {
		return search.View[market.Item]{}, false
	}
	v := f.latest
	f.pending = false
	f.delivered = v.Revision
	return v, true
}

// waitSearchCmd blocks until the controller publishes a newer view. Exactly
// one waiter is outstanding; each searchMsg schedules the next.
func waitSearchCmd(ctx context.Context, f *viewFeed) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-f.signal:
				if v, ok := f.take(); ok {
					return searchMsg(v)
				}
			}
		}
	}
}
