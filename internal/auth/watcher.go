package auth

import (
	"errors"
	"sync"
	"time"
)

// ErrSignedOut is returned when a screen that needs a user is opened
// without one.
var ErrSignedOut = errors.New("sign in required")

// Watcher holds the current user and notifies subscribers when it changes.
type Watcher struct {
	mu      sync.Mutex
	session Session
	present bool
	subs    map[int]func(Session, bool)
	nextID  int
	now     func() time.Time
}

// NewWatcher returns a signed-out Watcher.
func NewWatcher() *Watcher {
	return &Watcher{subs: make(map[int]func(Session, bool)), now: time.Now}
}

// Current returns the signed-in session. Expired sessions are reported as
// absent.
func (w *Watcher) Current() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.present || w.session.Expired(w.now()) {
		return Session{}, false
	}
	return w.session, true
}

// Stored returns the session even when its ID token has expired, so it
// can be refreshed.
func (w *Watcher) Stored() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session, w.present
}

// Token returns the current ID token or "".
func (w *Watcher) Token() string {
	s, ok := w.Current()
	if !ok {
		return ""
	}
	return s.IDToken
}

// Email returns the current user's email or "".
func (w *Watcher) Email() string {
	s, ok := w.Current()
	if !ok {
		return ""
	}
	return s.Email
}

// Subscribe registers fn for every change and returns a function that
// removes it. fn runs on the goroutine that made the change.
func (w *Watcher) Subscribe(fn func(Session, bool)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}

// Set signs s in, replacing any previous user.
func (w *Watcher) Set(s Session) {
	if !s.Valid() {
		w.SignOut()
		return
	}
	w.mu.Lock()
	w.session = s
	w.present = true
	subs := w.snapshotSubs()
	w.mu.Unlock()

	for _, fn := range subs {
		fn(s, true)
	}
}

// SignOut clears the current user.
func (w *Watcher) SignOut() {
	w.mu.Lock()
	if !w.present {
		w.mu.Unlock()
		return
	}
	w.session = Session{}
	w.present = false
	subs := w.snapshotSubs()
	w.mu.Unlock()

	for _, fn := range subs {
		fn(Session{}, false)
	}
}

func (w *Watcher) snapshotSubs() []func(Session, bool) {
	out := make([]func(Session, bool), 0, len(w.subs))
	for i := 0; i < w.nextID; i++ {
		if fn, ok := w.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// RequireSession guards screens that act on behalf of a user.
func RequireSession(w *Watcher) (Session, error) {
	if w == nil {
		return Session{}, ErrSignedOut
	}
	s, ok := w.Current()
	if !ok {
		return Session{}, ErrSignedOut
	}
	return s, nil
}
