// Package store persists recurring and daily tasks and streams live snapshots
// of each (user, month) and (user, month, day) scope.
package store

import (
	"context"
	"fmt"

	"task-calendar/app/dates"
	"task-calendar/app/models"
)

// Backend is the persistence contract every storage technology implements.
// Callers pass already-validated keys; validation and identity checks live in
// the service layer.
type Backend interface {
	// SubscribeRecurring opens a live query over a month's recurring tasks,
	// ordered by creation time.
	SubscribeRecurring(ctx context.Context, userID, month string) (*Subscription[[]models.RecurringTask], error)
	AddRecurringTask(ctx context.Context, userID, month, title string) (*models.RecurringTask, error)
	DeleteRecurringTask(ctx context.Context, userID, month, id string) error
	// MergeCheck sets checks[dayKey] on one task and leaves every other day untouched.
	MergeCheck(ctx context.Context, userID, month, id, dayKey string, value bool) error

	// SubscribeDaily opens a live query over the daily tasks of one day.
	SubscribeDaily(ctx context.Context, userID, month, dayKey string) (*Subscription[[]models.DailyTask], error)
	AddDailyTask(ctx context.Context, userID, month, dayKey, title string) (*models.DailyTask, error)
	ToggleDailyTask(ctx context.Context, userID, month, dayKey, id string) error
	DeleteDailyTask(ctx context.Context, userID, month, dayKey, id string) error

	Close(ctx context.Context) error
}

func recurringScope(userID, month string) string {
	return fmt.Sprintf("recurring/%s/%s", userID, month)
}

func dailyScope(userID, month, dayKey string) string {
	return fmt.Sprintf("daily/%s/%s/%s", userID, month, dayKey)
}

// cloneChecks copies a check map so snapshots never share state with the store.
func cloneChecks(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// dayChecks keeps the entries of a stored check map whose keys are day keys
// ("01".."31"). Stores written by other clients may hold anything.
func dayChecks(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if _, err := dates.ParseDayKey(k); err == nil {
			out[k] = v
		}
	}
	return out
}
