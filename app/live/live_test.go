package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"task-calendar/app/models"
	"task-calendar/app/progress"
	"task-calendar/app/store"
)

// fakeSource hands out subscriptions the test can push to, and counts how
// many are open.
type fakeSource struct {
	mu        sync.Mutex
	opened    []string
	cancelled int
	recurring map[string]*store.Subscription[[]models.RecurringTask]
	daily     map[string]*store.Subscription[[]models.DailyTask]
	initial   map[string][]models.RecurringTask
	failOpen  error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		recurring: make(map[string]*store.Subscription[[]models.RecurringTask]),
		daily:     make(map[string]*store.Subscription[[]models.DailyTask]),
		initial:   make(map[string][]models.RecurringTask),
	}
}

func (f *fakeSource) release() {
	f.mu.Lock()
	f.cancelled++
	f.mu.Unlock()
}

func (f *fakeSource) ListRecurringTasks(_ context.Context, month string) (*store.Subscription[[]models.RecurringTask], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOpen != nil {
		return nil, f.failOpen
	}
	f.opened = append(f.opened, month)
	sub := store.NewSubscription(f.initial[month], f.release)
	f.recurring[month] = sub
	return sub, nil
}

func (f *fakeSource) ListDailyTasks(_ context.Context, month string, day int) (*store.Subscription[[]models.DailyTask], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s/%02d", month, day)
	f.opened = append(f.opened, key)
	sub := store.NewSubscription([]models.DailyTask{}, f.release)
	f.daily[key] = sub
	return sub, nil
}

func (f *fakeSource) open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened) - f.cancelled
}

func (f *fakeSource) recurringSub(month string) *store.Subscription[[]models.RecurringTask] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recurring[month]
}

func waitMonth(t *testing.T, ch <-chan MonthState, match func(MonthState) bool) MonthState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if match(st) {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for month state")
		}
	}
}

func task(id string, days ...string) models.RecurringTask {
	checks := make(map[string]bool)
	for _, d := range days {
		checks[d] = true
	}
	return models.RecurringTask{ID: id, Title: id, Checks: checks}
}

func TestMonthView_InitialSnapshotScores(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	src.initial["2025-11"] = []models.RecurringTask{task("a", "01"), task("b")}

	view := NewMonthView(src, nil)
	defer view.Close()

	if err := view.SetMonth(context.Background(), "2025-11"); err != nil {
		t.Fatal(err)
	}
	st := view.State()
	if st.Label != "November 2025" || st.DaysInMonth != 30 {
		t.Fatalf("state header = %q/%d", st.Label, st.DaysInMonth)
	}
	if !st.Loaded || len(st.Scores) != 30 {
		t.Fatalf("scores = %d, loaded = %v", len(st.Scores), st.Loaded)
	}
	if st.Scores[0].Percentage != 50 || st.Scores[1].Percentage != 0 {
		t.Fatalf("day 1 = %v, day 2 = %v", st.Scores[0].Percentage, st.Scores[1].Percentage)
	}
	if st.Message != "" {
		t.Fatalf("message = %q for non-empty month", st.Message)
	}
}

func TestMonthView_EmptyMonth(t *testing.T) {
	t.Parallel()
	view := NewMonthView(newFakeSource(), nil)
	defer view.Close()

	if err := view.SetMonth(context.Background(), "2024-02"); err != nil {
		t.Fatal(err)
	}
	st := view.State()
	if st.Scores == nil || len(st.Scores) != 0 {
		t.Fatalf("scores = %#v, want empty", st.Scores)
	}
	if st.Message != progress.EmptyMessage {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestMonthView_RecomputesOnEverySnapshot(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	states := make(chan MonthState, 16)
	view := NewMonthView(src, func(st MonthState) { states <- st })
	defer view.Close()

	if err := view.SetMonth(context.Background(), "2025-11"); err != nil {
		t.Fatal(err)
	}
	<-states

	sub := src.recurringSub("2025-11")
	sub.Push([]models.RecurringTask{task("a", "02")})
	st := waitMonth(t, states, func(st MonthState) bool { return len(st.Tasks) == 1 })
	if st.Scores[1].Percentage != 100 {
		t.Fatalf("day 2 = %v", st.Scores[1].Percentage)
	}

	sub.Push([]models.RecurringTask{task("a", "02"), task("b")})
	st = waitMonth(t, states, func(st MonthState) bool { return len(st.Tasks) == 2 })
	if st.Scores[1].Percentage != 50 {
		t.Fatalf("day 2 after second task = %v", st.Scores[1].Percentage)
	}
}

func TestMonthView_ErrorKeepsLastSnapshot(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	src.initial["2025-11"] = []models.RecurringTask{task("a", "01")}
	states := make(chan MonthState, 16)
	view := NewMonthView(src, func(st MonthState) { states <- st })
	defer view.Close()

	if err := view.SetMonth(context.Background(), "2025-11"); err != nil {
		t.Fatal(err)
	}
	<-states

	src.recurringSub("2025-11").Fail(store.ErrStoreUnavailable)
	st := waitMonth(t, states, func(st MonthState) bool { return st.Err != nil })
	if !errors.Is(st.Err, store.ErrStoreUnavailable) {
		t.Fatalf("err = %v", st.Err)
	}
	if len(st.Tasks) != 1 || st.Scores[0].Percentage != 100 {
		t.Fatalf("last snapshot dropped: %+v", st)
	}
}

func TestMonthView_SwitchCancelsPreviousScope(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	var mu sync.Mutex
	var seen []string
	view := NewMonthView(src, func(st MonthState) {
		mu.Lock()
		seen = append(seen, st.Month)
		mu.Unlock()
	})
	ctx := context.Background()

	if err := view.SetMonth(ctx, "2025-11"); err != nil {
		t.Fatal(err)
	}
	old := src.recurringSub("2025-11")

	if err := view.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if got := view.State().Month; got != "2025-12" {
		t.Fatalf("month after Next = %q", got)
	}
	if n := src.open(); n != 1 {
		t.Fatalf("open subscriptions = %d, want 1", n)
	}

	// Late data for the old month must never surface.
	if old.Push([]models.RecurringTask{task("stale", "01")}) {
		t.Fatal("old subscription still accepts snapshots")
	}

	mu.Lock()
	last := seen[len(seen)-1]
	mu.Unlock()
	if last != "2025-12" {
		t.Fatalf("last rendered month = %q", last)
	}

	if err := view.Previous(ctx); err != nil {
		t.Fatal(err)
	}
	if got := view.State().Month; got != "2025-11" {
		t.Fatalf("month after Previous = %q", got)
	}

	view.Close()
	if n := src.open(); n != 0 {
		t.Fatalf("open subscriptions after Close = %d", n)
	}
}

func TestMonthView_RapidSwitching(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	view := NewMonthView(src, nil)
	ctx := context.Background()

	months := []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05"}
	for _, m := range months {
		if err := view.SetMonth(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	if n := src.open(); n != 1 {
		t.Fatalf("open subscriptions = %d, want 1", n)
	}
	if got := view.State().Month; got != "2025-05" {
		t.Fatalf("month = %q", got)
	}
	view.Close()
}

func TestMonthView_RejectsBadMonth(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	view := NewMonthView(src, nil)
	defer view.Close()

	if err := view.SetMonth(context.Background(), "2025-13"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if err := view.Next(context.Background()); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("Next without month err = %v", err)
	}
	if n := src.open(); n != 0 {
		t.Fatalf("opened %d subscriptions", n)
	}
}

func TestMonthView_OpenFailure(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	src.failOpen = store.ErrNoIdentity
	view := NewMonthView(src, nil)
	defer view.Close()

	err := view.SetMonth(context.Background(), "2025-11")
	if !errors.Is(err, store.ErrNoIdentity) {
		t.Fatalf("err = %v", err)
	}
	st := view.State()
	if st.Loaded || !errors.Is(st.Err, store.ErrNoIdentity) {
		t.Fatalf("state = %+v", st)
	}
}

func TestDayView(t *testing.T) {
	t.Parallel()
	src := newFakeSource()
	states := make(chan DayState, 16)
	view := NewDayView(src, func(st DayState) { states <- st })
	ctx := context.Background()

	if err := view.SetDay(ctx, "2025-11", 31); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("day 31 err = %v", err)
	}
	if err := view.SetDay(ctx, "2025-11", 3); err != nil {
		t.Fatal(err)
	}
	<-states

	src.mu.Lock()
	sub := src.daily["2025-11/03"]
	src.mu.Unlock()
	sub.Push([]models.DailyTask{{ID: "a", Completed: true}, {ID: "b"}})

	select {
	case st := <-states:
		if st.Remaining != 1 || len(st.Tasks) != 2 {
			t.Fatalf("state = %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	if err := view.SetDay(ctx, "2025-11", 4); err != nil {
		t.Fatal(err)
	}
	if n := src.open(); n != 1 {
		t.Fatalf("open subscriptions = %d", n)
	}
	view.Close()
	if n := src.open(); n != 0 {
		t.Fatalf("open after Close = %d", n)
	}
}
