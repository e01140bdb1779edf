package live

import (
	"context"
	"fmt"
	"sync"

	"task-calendar/app/dates"
	"task-calendar/app/models"
	"task-calendar/app/store"
)

// DailySource opens live views of one day's tasks.
type DailySource interface {
	ListDailyTasks(ctx context.Context, month string, day int) (*store.Subscription[[]models.DailyTask], error)
}

// DayState is what a single day's task list renders from.
type DayState struct {
	Month     string             `json:"month"`
	Day       int                `json:"day"`
	Loaded    bool               `json:"loaded"`
	Tasks     []models.DailyTask `json:"tasks"`
	Remaining int                `json:"remaining"`
	Error     string             `json:"error,omitempty"`
	Err       error              `json:"-"`
}

// DayView binds one day's tasks to a listener.
//
// onChange runs synchronously and must not call back into the view.
type DayView struct {
	source   DailySource
	onChange func(DayState)
	binding  binding[[]models.DailyTask]

	mu    sync.Mutex
	state DayState
}

// NewDayView creates a view with no active day.
func NewDayView(source DailySource, onChange func(DayState)) *DayView {
	return &DayView{source: source, onChange: onChange}
}

// SetDay switches the view to (month, day), cancelling the previous subscription first.
func (v *DayView) SetDay(ctx context.Context, month string, day int) error {
	if !dates.ValidDay(month, day) {
		return fmt.Errorf("%w: day %d of %q", store.ErrInvalidInput, day, month)
	}

	return v.binding.switchTo(ctx,
		func(ctx context.Context) (*store.Subscription[[]models.DailyTask], error) {
			return v.source.ListDailyTasks(ctx, month, day)
		},
		func() {
			v.setState(DayState{Month: month, Day: day, Tasks: []models.DailyTask{}})
		},
		v.render,
	)
}

func (v *DayView) render(tasks []models.DailyTask, err error) {
	st := v.State()
	if err != nil {
		st.Err = err
		st.Error = err.Error()
	} else {
		st.Loaded = true
		st.Err = nil
		st.Error = ""
		st.Tasks = tasks
		st.Remaining = 0
		for _, t := range tasks {
			if !t.Completed {
				st.Remaining++
			}
		}
	}

	v.setState(st)
	if v.onChange != nil {
		v.onChange(st)
	}
}

// State returns the most recently rendered state.
func (v *DayView) State() DayState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *DayView) setState(st DayState) {
	v.mu.Lock()
	v.state = st
	v.mu.Unlock()
}

// Close cancels the active subscription.
func (v *DayView) Close() {
	v.binding.close()
}
