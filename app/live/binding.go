// Package live keeps a view's data in step with the store: each view holds a
// single subscription and re-derives its state from every snapshot.
package live

import (
	"context"
	"sync"

	"task-calendar/app/store"
)

// binding owns at most one subscription. Switching scope cancels the old
// subscription before the new one is opened, and a generation counter drops
// anything the old scope still had in flight.
type binding[T any] struct {
	scopeMu sync.Mutex // serialises switchTo and close
	sub     *store.Subscription[T]

	emitMu sync.Mutex // held while a snapshot is rendered
	gen    int
}

// switchTo moves the binding to a new scope. reset prepares the view for the
// new scope once the old one can no longer emit. deliver renders every
// snapshot or error of the new scope, starting with the initial snapshot.
func (b *binding[T]) switchTo(
	ctx context.Context,
	open func(context.Context) (*store.Subscription[T], error),
	reset func(),
	deliver func(snapshot T, err error),
) error {
	b.scopeMu.Lock()
	defer b.scopeMu.Unlock()

	b.emitMu.Lock()
	b.gen++
	gen := b.gen
	reset()
	b.emitMu.Unlock()

	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}

	sub, err := open(ctx)
	if err != nil {
		var zero T
		b.emit(gen, func() { deliver(zero, err) })
		return err
	}
	b.sub = sub

	b.emit(gen, func() { deliver(sub.Initial(), nil) })
	go func() {
		for ev := range sub.Events() {
			b.emit(gen, func() { deliver(ev.Snapshot, ev.Err) })
		}
	}()
	return nil
}

func (b *binding[T]) emit(gen int, render func()) {
	b.emitMu.Lock()
	defer b.emitMu.Unlock()
	if gen != b.gen {
		return
	}
	render()
}

// close cancels the active subscription; nothing is rendered afterwards.
func (b *binding[T]) close() {
	b.scopeMu.Lock()
	defer b.scopeMu.Unlock()

	b.emitMu.Lock()
	b.gen++
	b.emitMu.Unlock()

	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}
}
