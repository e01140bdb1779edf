package store

import "sync"

// Event is one delivery on a subscription: either a full snapshot of the
// scoped collection or an error. An error never replaces the last snapshot.
type Event[T any] struct {
	Snapshot T
	Err      error
}

// Subscription is a live query over one scoped collection. It carries the
// snapshot taken when it was opened and then delivers every later change, in
// the order the backend committed them, until Cancel is called.
type Subscription[T any] struct {
	initial T
	events  chan Event[T]
	wake    chan struct{}
	done    chan struct{}
	exited  chan struct{}

	mu     sync.Mutex
	queue  []Event[T]
	closed bool
	stop   func()
	once   sync.Once
}

// NewSubscription opens a subscription around initial. Producers deliver later
// changes with Push and Fail; stop, if non-nil, runs once on Cancel.
func NewSubscription[T any](initial T, stop func()) *Subscription[T] {
	s := newSubscription(initial)
	s.onCancel(stop)
	return s
}

func newSubscription[T any](initial T) *Subscription[T] {
	s := &Subscription[T]{
		initial: initial,
		events:  make(chan Event[T]),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.pump()
	return s
}

// Initial returns the snapshot taken when the subscription was opened.
func (s *Subscription[T]) Initial() T {
	return s.initial
}

// Events returns the channel of later snapshots and errors. It is closed once
// the subscription has been cancelled.
func (s *Subscription[T]) Events() <-chan Event[T] {
	return s.events
}

// Done is closed when Cancel is called.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the subscription and releases the backend listener. It is safe
// to call more than once. Once Cancel returns no further event is received.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		stop := s.stop
		s.mu.Unlock()

		close(s.done)
		if stop != nil {
			stop()
		}
		<-s.exited
	})
}

func (s *Subscription[T]) onCancel(fn func()) {
	s.mu.Lock()
	s.stop = fn
	s.mu.Unlock()
}

// Push queues a new snapshot. It reports false once the subscription is cancelled.
func (s *Subscription[T]) Push(snapshot T) bool {
	return s.publish(Event[T]{Snapshot: snapshot})
}

// Fail queues an error event. The consumer keeps its last snapshot.
func (s *Subscription[T]) Fail(err error) bool {
	return s.publish(Event[T]{Err: err})
}

func (s *Subscription[T]) publish(ev Event[T]) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Subscription[T]) next() (Event[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event[T]{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}

// pump drains the queue so publishers never block on a slow reader.
func (s *Subscription[T]) pump() {
	defer close(s.exited)
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}
