// Package session holds the signed-in identity that scopes every store call.
package session

import (
	"strings"
	"sync"

	"task-calendar/app/store"
)

// Session is created on sign-in and torn down on sign-out. Anything that must
// not outlive the sign-in (live subscriptions, mostly) registers with Track.
type Session struct {
	userID string

	mu       sync.Mutex
	active   bool
	seq      int
	teardown map[int]func()
}

// New starts a session for userID. An empty id means nobody is signed in.
func New(userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, store.ErrNoIdentity
	}
	return &Session{userID: userID, active: true, teardown: make(map[int]func())}, nil
}

// UserID returns the signed-in user, or ErrNoIdentity after sign-out.
func (s *Session) UserID() (string, error) {
	if s == nil {
		return "", store.ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return "", store.ErrNoIdentity
	}
	return s.userID, nil
}

// Track registers fn to run on sign-out. The returned release unregisters it
// once its owner has cleaned up on its own.
func (s *Session) Track(fn func()) (release func(), err error) {
	if s == nil {
		return nil, store.ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, store.ErrNoIdentity
	}

	id := s.seq
	s.seq++
	s.teardown[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.teardown, id)
		s.mu.Unlock()
	}, nil
}

// Tracked returns the number of registered teardown hooks.
func (s *Session) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.teardown)
}

// SignOut ends the session and runs every teardown hook. Safe to call twice.
func (s *Session) SignOut() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	hooks := s.teardown
	s.teardown = make(map[int]func())
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
