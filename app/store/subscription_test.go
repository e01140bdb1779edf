package store

import (
	"errors"
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

func recv[T any](t *testing.T, sub *Subscription[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed while waiting for an event")
		}
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an event")
	}
	panic("unreachable")
}

func TestSubscription_DeliversInOrder(t *testing.T) {
	t.Parallel()

	sub := NewSubscription(0, nil)
	defer sub.Cancel()

	if sub.Initial() != 0 {
		t.Fatalf("Initial = %d", sub.Initial())
	}
	for i := 1; i <= 50; i++ {
		if !sub.Push(i) {
			t.Fatalf("Push(%d) rejected", i)
		}
	}
	for i := 1; i <= 50; i++ {
		ev := recv(t, sub)
		if ev.Err != nil || ev.Snapshot != i {
			t.Fatalf("event %d = %+v", i, ev)
		}
	}
}

func TestSubscription_FailKeepsOrdering(t *testing.T) {
	t.Parallel()

	sub := NewSubscription("a", nil)
	defer sub.Cancel()

	boom := errors.New("boom")
	sub.Push("b")
	sub.Fail(boom)
	sub.Push("c")

	if ev := recv(t, sub); ev.Snapshot != "b" {
		t.Fatalf("first event = %+v", ev)
	}
	if ev := recv(t, sub); !errors.Is(ev.Err, boom) {
		t.Fatalf("second event = %+v", ev)
	}
	if ev := recv(t, sub); ev.Snapshot != "c" {
		t.Fatalf("third event = %+v", ev)
	}
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	stops := 0
	sub := NewSubscription(0, func() { stops++ })
	sub.Push(1)
	sub.Cancel()
	sub.Cancel()

	if stops != 1 {
		t.Fatalf("stop ran %d times, want 1", stops)
	}
	if sub.Push(2) {
		t.Fatal("Push after Cancel accepted")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("received an event after Cancel returned")
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed after Cancel")
	}
}
