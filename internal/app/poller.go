package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
	fetchTimeout        = 10 * time.Second
)

// ItemSaver persists a successful fetch. *cache.Cache implements it.
type ItemSaver interface {
	SaveItems(ctx context.Context, items []market.Item) error
}

// calculateBackoff doubles the base interval for each consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// StartPoller launches a background goroutine that refreshes the store. The
// wait between polls grows while the API keeps failing. It returns
// immediately.
func StartPoller(ctx context.Context, store *state.Store, catalog market.Catalog, saver ItemSaver, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, catalog, saver)
			wait := interval
			if failures := store.Snapshot().ConsecutiveFailures; failures > 0 {
				wait = calculateBackoff(failures, interval)
				if wait < interval {
					wait = interval
				}
			}
			timer.Reset(wait)
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, catalog market.Catalog, saver ItemSaver) error {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	items, err := catalog.FetchItems(fetchCtx)
	if err != nil {
		store.Update(nil, err)
		log.Printf("items poll failed: %v", err)
		return err
	}
	store.Update(items, nil)

	if saver != nil {
		if err := saver.SaveItems(ctx, items); err != nil {
			log.Printf("offline cache write failed: %v", err)
		}
	}
	return nil
}
