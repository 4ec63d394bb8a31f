package auth

import (
	"errors"
	"testing"
	"time"
)

func TestWatcher_SetNotifiesAndSignOutClears(t *testing.T) {
	w := NewWatcher()
	if _, ok := w.Current(); ok {
		t.Fatalf("new watcher reports a session")
	}

	type event struct {
		email string
		ok    bool
	}
	var events []event
	unsubscribe := w.Subscribe(func(s Session, ok bool) {
		events = append(events, event{s.Email, ok})
	})

	w.Set(Session{Email: "ana@example.com", IDToken: "tok"})
	if w.Email() != "ana@example.com" || w.Token() != "tok" {
		t.Fatalf("Email/Token = %q/%q", w.Email(), w.Token())
	}
	w.SignOut()
	w.SignOut()

	if len(events) != 2 || events[0] != (event{"ana@example.com", true}) || events[1] != (event{"", false}) {
		t.Fatalf("events = %#v", events)
	}

	unsubscribe()
	unsubscribe()
	w.Set(Session{Email: "b@example.com", IDToken: "tok"})
	if len(events) != 2 {
		t.Fatalf("unsubscribed callback still called: %#v", events)
	}
}

func TestWatcher_SetInvalidSignsOut(t *testing.T) {
	w := NewWatcher()
	w.Set(Session{Email: "a@b", IDToken: "x"})
	w.Set(Session{Email: "a@b"})
	if _, ok := w.Current(); ok {
		t.Fatalf("session without token accepted")
	}
}

func TestWatcher_ExpiredSessionIsAbsentButStored(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWatcher()
	w.now = func() time.Time { return now }
	w.Set(Session{Email: "a@b", IDToken: "x", RefreshToken: "r", ExpiresAt: now.Add(-time.Minute)})

	if _, ok := w.Current(); ok {
		t.Fatalf("expired session reported current")
	}
	if w.Token() != "" {
		t.Fatalf("Token = %q for expired session", w.Token())
	}
	if s, ok := w.Stored(); !ok || s.RefreshToken != "r" {
		t.Fatalf("Stored = %#v, %v", s, ok)
	}
}

func TestRequireSession(t *testing.T) {
	if _, err := RequireSession(nil); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("nil watcher err = %v", err)
	}
	w := NewWatcher()
	if _, err := RequireSession(w); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("signed out err = %v", err)
	}
	w.Set(Session{Email: "a@b", IDToken: "x"})
	s, err := RequireSession(w)
	if err != nil || s.Email != "a@b" {
		t.Fatalf("RequireSession = %#v, %v", s, err)
	}
}
