package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"task-calendar/app/dates"
	"task-calendar/app/models"
	"task-calendar/app/progress"
	"task-calendar/app/store"
)

// RecurringSource opens live views of a month's recurring tasks.
type RecurringSource interface {
	ListRecurringTasks(ctx context.Context, month string) (*store.Subscription[[]models.RecurringTask], error)
}

// MonthState is everything a month grid and its trend graph render from.
type MonthState struct {
	Month       string                 `json:"month"`
	Label       string                 `json:"label"`
	DaysInMonth int                    `json:"days_in_month"`
	Loaded      bool                   `json:"loaded"`
	Tasks       []models.RecurringTask `json:"tasks"`
	Scores      []models.DailyScore    `json:"scores"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Err         error                  `json:"-"`
}

// MonthView binds a month of recurring tasks to a listener. Every snapshot
// recomputes the daily scores over the full task set.
//
// onChange runs synchronously and must not call back into the view.
type MonthView struct {
	source   RecurringSource
	onChange func(MonthState)
	binding  binding[[]models.RecurringTask]

	mu    sync.Mutex
	state MonthState
}

// NewMonthView creates a view with no active month.
func NewMonthView(source RecurringSource, onChange func(MonthState)) *MonthView {
	return &MonthView{source: source, onChange: onChange}
}

// SetMonth switches the view to month. The previous subscription is cancelled
// before the new one is opened.
func (v *MonthView) SetMonth(ctx context.Context, month string) error {
	first, err := dates.ParseMonthKey(month)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	days := dates.DaysInMonth(first)

	return v.binding.switchTo(ctx,
		func(ctx context.Context) (*store.Subscription[[]models.RecurringTask], error) {
			return v.source.ListRecurringTasks(ctx, month)
		},
		func() {
			v.setState(MonthState{
				Month:       month,
				Label:       dates.FormatMonthYear(first),
				DaysInMonth: days,
				Tasks:       []models.RecurringTask{},
				Scores:      []models.DailyScore{},
			})
		},
		v.render,
	)
}

// Next moves the view one month forward.
func (v *MonthView) Next(ctx context.Context) error {
	return v.step(ctx, dates.NextMonth)
}

// Previous moves the view one month back.
func (v *MonthView) Previous(ctx context.Context) error {
	return v.step(ctx, dates.PreviousMonth)
}

func (v *MonthView) step(ctx context.Context, move func(time.Time) time.Time) error {
	current, err := dates.ParseMonthKey(v.State().Month)
	if err != nil {
		return fmt.Errorf("%w: no month selected", store.ErrInvalidInput)
	}
	return v.SetMonth(ctx, dates.MonthKey(move(current)))
}

func (v *MonthView) render(tasks []models.RecurringTask, err error) {
	st := v.State()
	if err != nil {
		// Unavailable is not empty: keep whatever was last shown.
		st.Err = err
		st.Error = err.Error()
	} else {
		st.Loaded = true
		st.Err = nil
		st.Error = ""
		st.Tasks = tasks
		st.Scores = progress.ComputeDailyScores(tasks, st.DaysInMonth)
	}
	st.Message = ""
	if st.Loaded && len(st.Scores) == 0 {
		st.Message = progress.EmptyMessage
	}

	v.setState(st)
	if v.onChange != nil {
		v.onChange(st)
	}
}

// State returns the most recently rendered state.
func (v *MonthView) State() MonthState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *MonthView) setState(st MonthState) {
	v.mu.Lock()
	v.state = st
	v.mu.Unlock()
}

// Close cancels the active subscription.
func (v *MonthView) Close() {
	v.binding.close()
}
