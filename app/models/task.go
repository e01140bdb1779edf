package models

import (
	"time"

	"task-calendar/app/dates"
)

// RecurringTask is a task tracked for a whole month with one check per day.
type RecurringTask struct {
	ID        string          `json:"id" firestore:"-"`
	Title     string          `json:"title" firestore:"title"`
	CreatedAt time.Time       `json:"created_at" firestore:"createdAt"`
	Checks    map[string]bool `json:"checks" firestore:"checks"`
}

// Checked reports whether the task is checked on the given day.
// Only an explicit true counts; a false entry and a missing one read the same.
func (t RecurringTask) Checked(day int) bool {
	return t.Checks[dates.DayKey(day)]
}

// DailyTask is a one-off task scoped to a single day.
type DailyTask struct {
	ID        string    `json:"id" firestore:"-"`
	Title     string    `json:"title" firestore:"title"`
	Completed bool      `json:"completed" firestore:"completed"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// DailyScore is the share of recurring tasks checked on one day, 0 to 100.
type DailyScore struct {
	Day        int     `json:"day"`
	Percentage float64 `json:"percentage"`
}
