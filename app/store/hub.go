package store

import (
	"context"
	"reflect"
	"sync"
	"time"
)

const refreshTimeout = 10 * time.Second

// hub gives backends without native change streams live queries: each
// committed write re-queries the scopes being watched and pushes the result.
// Each scope has its own lock, so snapshots for a scope leave in commit order
// and a slow query only holds up its own scope.
type hub struct {
	mu     sync.Mutex
	seq    int
	scopes map[string]*scopeWatch
}

// scopeWatch is the set of subscriptions on one scope.
type scopeWatch struct {
	mu       sync.Mutex // serialises loads and refreshes of the scope
	watchers map[int]func(poll bool)

	refs int // guarded by hub.mu
}

func newHub() *hub {
	return &hub{scopes: make(map[string]*scopeWatch)}
}

// acquire returns the scope's watch set, creating it if needed, and a fresh
// watcher id. Every acquire is paired with a release.
func (h *hub) acquire(scope string) (*scopeWatch, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.scopes[scope]
	if s == nil {
		s = &scopeWatch{watchers: make(map[int]func(bool))}
		h.scopes[scope] = s
	}
	s.refs++
	id := h.seq
	h.seq++
	return s, id
}

func (h *hub) release(scope string, s *scopeWatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s.refs--
	if s.refs == 0 && h.scopes[scope] == s {
		delete(h.scopes, scope)
	}
}

func (h *hub) lookup(scope string) *scopeWatch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scopes[scope]
}

// watch loads the initial snapshot and registers the scope in one step so
// that no write to the scope can slip between the two.
func watch[T any](ctx context.Context, h *hub, scope string, load func(context.Context) (T, error)) (*Subscription[T], error) {
	s, id := h.acquire(scope)

	s.mu.Lock()
	initial, err := load(ctx)
	if err != nil {
		s.mu.Unlock()
		h.release(scope, s)
		return nil, unavailable(err)
	}

	sub := newSubscription(initial)
	last := initial
	s.watchers[id] = func(poll bool) {
		rctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		next, err := load(rctx)
		if err != nil {
			sub.Fail(unavailable(err))
			return
		}
		// Polls only report real changes; writes always produce a snapshot.
		if poll && reflect.DeepEqual(next, last) {
			return
		}
		last = next
		sub.Push(next)
	}
	s.mu.Unlock()

	sub.onCancel(func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		h.release(scope, s)
	})
	return sub, nil
}

// refresh runs every watcher on s.
func (s *scopeWatch) refresh(poll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.watchers {
		fn(poll)
	}
}

// notify refreshes every subscription on scope after a committed write.
func (h *hub) notify(scope string) {
	if s := h.lookup(scope); s != nil {
		s.refresh(false)
	}
}

// poll refreshes every watched scope and pushes only changed snapshots.
func (h *hub) poll() {
	h.mu.Lock()
	scopes := make([]*scopeWatch, 0, len(h.scopes))
	for _, s := range h.scopes {
		scopes = append(scopes, s)
	}
	h.mu.Unlock()

	for _, s := range scopes {
		s.refresh(true)
	}
}

// active returns the number of open subscriptions.
func (h *hub) active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.scopes {
		n += s.refs
	}
	return n
}
