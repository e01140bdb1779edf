package store

import (
	"context"
	"errors"
	"testing"

	"task-calendar/app/models"
)

// runBackendContract exercises the behaviour every Backend must share.
func runBackendContract(t *testing.T, open func(t *testing.T) Backend) {
	t.Run("AddRecurringStartsWithEmptyChecks", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		task, err := b.AddRecurringTask(ctx, "u1", "2024-02", "Read")
		if err != nil {
			t.Fatalf("AddRecurringTask: %v", err)
		}
		if task.ID == "" || task.Title != "Read" {
			t.Fatalf("unexpected task %+v", task)
		}
		if task.Checks == nil || len(task.Checks) != 0 {
			t.Fatalf("expected empty checks, got %v", task.Checks)
		}
	})

	t.Run("SubscriptionSeesWritesInOrder", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		sub, err := b.SubscribeRecurring(ctx, "u1", "2024-02")
		if err != nil {
			t.Fatalf("SubscribeRecurring: %v", err)
		}
		defer sub.Cancel()
		if len(sub.Initial()) != 0 {
			t.Fatalf("initial snapshot = %v", sub.Initial())
		}

		first, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "First")
		if ev := recv(t, sub); len(ev.Snapshot) != 1 || ev.Snapshot[0].ID != first.ID {
			t.Fatalf("after first add: %+v", ev)
		}
		second, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "Second")
		ev := recv(t, sub)
		if len(ev.Snapshot) != 2 || ev.Snapshot[0].ID != first.ID || ev.Snapshot[1].ID != second.ID {
			t.Fatalf("after second add: %+v", ev)
		}
	})

	t.Run("MergeCheckTouchesOneDay", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		task, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "Run")
		mustCheck(t, b, task.ID, "01", true)
		mustCheck(t, b, task.ID, "02", true)
		mustCheck(t, b, task.ID, "02", false)
		mustCheck(t, b, task.ID, "29", true)
		mustCheck(t, b, task.ID, "29", true)

		got := recurringSnapshot(t, b, "u1", "2024-02")
		if len(got) != 1 {
			t.Fatalf("got %d tasks", len(got))
		}
		want := map[string]bool{"01": true, "02": false, "29": true}
		if len(got[0].Checks) != len(want) {
			t.Fatalf("checks = %v, want %v", got[0].Checks, want)
		}
		for k, v := range want {
			if got[0].Checks[k] != v {
				t.Fatalf("checks[%s] = %v, want %v", k, got[0].Checks[k], v)
			}
		}
		if !got[0].Checked(1) || got[0].Checked(2) || got[0].Checked(3) {
			t.Fatalf("Checked predicate disagrees with %v", got[0].Checks)
		}
	})

	t.Run("MissingTaskIsNotFound", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		if err := b.MergeCheck(ctx, "u1", "2024-02", "nope", "01", true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("MergeCheck err = %v", err)
		}
		if err := b.DeleteRecurringTask(ctx, "u1", "2024-02", "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("DeleteRecurringTask err = %v", err)
		}
		if err := b.ToggleDailyTask(ctx, "u1", "2024-02", "01", "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("ToggleDailyTask err = %v", err)
		}
		if err := b.DeleteDailyTask(ctx, "u1", "2024-02", "01", "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("DeleteDailyTask err = %v", err)
		}
	})

	t.Run("ScopesAreIsolated", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		task, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "Mine")
		if _, err := b.AddRecurringTask(ctx, "u2", "2024-02", "Theirs"); err != nil {
			t.Fatal(err)
		}
		if _, err := b.AddRecurringTask(ctx, "u1", "2024-03", "Next month"); err != nil {
			t.Fatal(err)
		}

		got := recurringSnapshot(t, b, "u1", "2024-02")
		if len(got) != 1 || got[0].ID != task.ID {
			t.Fatalf("scope leaked: %+v", got)
		}
		if err := b.DeleteRecurringTask(ctx, "u2", "2024-02", task.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("cross-user delete err = %v", err)
		}
	})

	t.Run("DeleteRemovesFromSnapshots", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		a, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "A")
		keep, _ := b.AddRecurringTask(ctx, "u1", "2024-02", "B")
		mustCheck(t, b, a.ID, "01", true)

		if err := b.DeleteRecurringTask(ctx, "u1", "2024-02", a.ID); err != nil {
			t.Fatalf("DeleteRecurringTask: %v", err)
		}
		got := recurringSnapshot(t, b, "u1", "2024-02")
		if len(got) != 1 || got[0].ID != keep.ID {
			t.Fatalf("after delete: %+v", got)
		}
		if err := b.DeleteRecurringTask(ctx, "u1", "2024-02", a.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete err = %v", err)
		}
	})

	t.Run("DailyTaskLifecycle", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		sub, err := b.SubscribeDaily(ctx, "u1", "2024-02", "05")
		if err != nil {
			t.Fatalf("SubscribeDaily: %v", err)
		}
		defer sub.Cancel()

		task, err := b.AddDailyTask(ctx, "u1", "2024-02", "05", "Dentist")
		if err != nil {
			t.Fatalf("AddDailyTask: %v", err)
		}
		if task.Completed {
			t.Fatal("new daily task is completed")
		}
		if ev := recv(t, sub); len(ev.Snapshot) != 1 || ev.Snapshot[0].Completed {
			t.Fatalf("after add: %+v", ev)
		}

		if err := b.ToggleDailyTask(ctx, "u1", "2024-02", "05", task.ID); err != nil {
			t.Fatalf("ToggleDailyTask: %v", err)
		}
		if ev := recv(t, sub); len(ev.Snapshot) != 1 || !ev.Snapshot[0].Completed {
			t.Fatalf("after toggle: %+v", ev)
		}
		if err := b.ToggleDailyTask(ctx, "u1", "2024-02", "05", task.ID); err != nil {
			t.Fatalf("ToggleDailyTask: %v", err)
		}
		if ev := recv(t, sub); ev.Snapshot[0].Completed {
			t.Fatalf("after second toggle: %+v", ev)
		}

		if err := b.DeleteDailyTask(ctx, "u1", "2024-02", "05", task.ID); err != nil {
			t.Fatalf("DeleteDailyTask: %v", err)
		}
		if ev := recv(t, sub); len(ev.Snapshot) != 0 {
			t.Fatalf("after delete: %+v", ev)
		}

		other, err := b.SubscribeDaily(ctx, "u1", "2024-02", "06")
		if err != nil {
			t.Fatal(err)
		}
		defer other.Cancel()
		if len(other.Initial()) != 0 {
			t.Fatalf("day scopes leaked: %+v", other.Initial())
		}
	})
}

func mustCheck(t *testing.T, b Backend, id, day string, value bool) {
	t.Helper()
	if err := b.MergeCheck(context.Background(), "u1", "2024-02", id, day, value); err != nil {
		t.Fatalf("MergeCheck(%s, %v): %v", day, value, err)
	}
}

func recurringSnapshot(t *testing.T, b Backend, userID, month string) []models.RecurringTask {
	t.Helper()
	sub, err := b.SubscribeRecurring(context.Background(), userID, month)
	if err != nil {
		t.Fatalf("SubscribeRecurring: %v", err)
	}
	defer sub.Cancel()
	return sub.Initial()
}
