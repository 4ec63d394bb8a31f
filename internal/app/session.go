package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/stall/internal/auth"
)

const (
	sessionCheckInterval = time.Minute
	sessionRefreshWindow = 5 * time.Minute
)

// Refresher renews an ID token. *auth.IdentityClient implements it.
type Refresher interface {
	Refresh(ctx context.Context, s auth.Session) (auth.Session, error)
}

// restoreSession signs the persisted user back in, refreshing an expired
// token when a refresh token is available. Unusable sessions are removed.
func restoreSession(ctx context.Context, watcher *auth.Watcher, refresher Refresher, path string, now time.Time) {
	s, ok, err := auth.Load(path)
	if err != nil {
		log.Printf("load session: %v", err)
		_ = auth.Clear(path)
		return
	}
	if !ok {
		return
	}
	if s.Expired(now) {
		fresh, err := refresher.Refresh(ctx, s)
		if err != nil {
			log.Printf("refresh stored session for %s: %v", s.Email, err)
			_ = auth.Clear(path)
			return
		}
		s = fresh
		if err := auth.Save(path, s); err != nil {
			log.Printf("save session: %v", err)
		}
	}
	watcher.Set(s)
	log.Printf("restored session for %s", s.Email)
}

// persistSession keeps the session file in step with the watcher.
func persistSession(watcher *auth.Watcher, path string) func() {
	return watcher.Subscribe(func(s auth.Session, ok bool) {
		if !ok {
			if err := auth.Clear(path); err != nil {
				log.Printf("clear session: %v", err)
			}
			log.Printf("signed out")
			return
		}
		if err := auth.Save(path, s); err != nil {
			log.Printf("save session: %v", err)
		}
	})
}

// refreshIfDue renews the stored session when it expires within the
// refresh window.
func refreshIfDue(ctx context.Context, watcher *auth.Watcher, refresher Refresher, now time.Time) {
	s, ok := watcher.Stored()
	if !ok || s.ExpiresAt.IsZero() || s.RefreshToken == "" {
		return
	}
	if s.ExpiresAt.Sub(now) > sessionRefreshWindow {
		return
	}
	fresh, err := refresher.Refresh(ctx, s)
	if err != nil {
		log.Printf("session refresh failed for %s: %v", s.Email, err)
		if s.Expired(now) {
			watcher.SignOut()
		}
		return
	}
	watcher.Set(fresh)
}

// StartSessionRefresher renews the signed-in user's ID token before it
// expires. It returns immediately.
func StartSessionRefresher(ctx context.Context, watcher *auth.Watcher, refresher Refresher) {
	go func() {
		ticker := time.NewTicker(sessionCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				refreshIfDue(ctx, watcher, refresher, now)
			}
		}
	}()
}
