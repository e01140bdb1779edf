package services

import (
	"context"
	"fmt"
	"strings"

	"task-calendar/app/dates"
	"task-calendar/app/models"
	"task-calendar/app/session"
	"task-calendar/app/store"
)

// TaskService handles task operations for one signed-in session.
type TaskService struct {
	backend store.Backend
	session *session.Session
}

// NewTaskService creates a TaskService scoped to sess.
func NewTaskService(backend store.Backend, sess *session.Session) *TaskService {
	return &TaskService{backend: backend, session: sess}
}

// Session returns the session the service is scoped to.
func (s *TaskService) Session() *session.Session {
	return s.session
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkMonth(month string) error {
	if _, err := dates.ParseMonthKey(month); err != nil {
		return invalidf("%v", err)
	}
	return nil
}

func checkDay(month string, day int) (string, error) {
	if err := checkMonth(month); err != nil {
		return "", err
	}
	if !dates.ValidDay(month, day) {
		return "", invalidf("day %d is not in %s", day, month)
	}
	return dates.DayKey(day), nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidf("title is empty")
	}
	return title, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", store.ErrNotFound)
	}
	return nil
}

// track ties a subscription to the session so sign-out cancels it.
func track[T any](sess *session.Session, sub *store.Subscription[T]) error {
	release, err := sess.Track(sub.Cancel)
	if err != nil {
		sub.Cancel()
		return err
	}
	go func() {
		<-sub.Done()
		release()
	}()
	return nil
}

// ListRecurringTasks opens a live, createdAt-ordered view of a month's recurring tasks.
func (s *TaskService) ListRecurringTasks(ctx context.Context, month string) (*store.Subscription[[]models.RecurringTask], error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	sub, err := s.backend.SubscribeRecurring(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if err := track(s.session, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecurringTasks returns a one-off snapshot of a month's recurring tasks.
func (s *TaskService) RecurringTasks(ctx context.Context, month string) ([]models.RecurringTask, error) {
	sub, err := s.ListRecurringTasks(ctx, month)
	if err != nil {
		return nil, err
	}
	defer sub.Cancel()
	return sub.Initial(), nil
}

// AddRecurringTask creates a recurring task with no checks.
func (s *TaskService) AddRecurringTask(ctx context.Context, month, title string) (*models.RecurringTask, error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	title, err = cleanTitle(title)
	if err != nil {
		return nil, err
	}
	return s.backend.AddRecurringTask(ctx, userID, month, title)
}

// DeleteRecurringTask permanently removes a recurring task.
func (s *TaskService) DeleteRecurringTask(ctx context.Context, month, id string) error {
	userID, err := s.session.UserID()
	if err != nil {
		return err
	}
	if err := checkMonth(month); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	return s.backend.DeleteRecurringTask(ctx, userID, month, id)
}

// SetCheck sets one day of a recurring task. Other days are left as they are.
func (s *TaskService) SetCheck(ctx context.Context, month, id string, day int, value bool) error {
	userID, err := s.session.UserID()
	if err != nil {
		return err
	}
	dayKey, err := checkDay(month, day)
	if err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	return s.backend.MergeCheck(ctx, userID, month, id, dayKey, value)
}

// ListDailyTasks opens a live view of one day's tasks.
func (s *TaskService) ListDailyTasks(ctx context.Context, month string, day int) (*store.Subscription[[]models.DailyTask], error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}
	dayKey, err := checkDay(month, day)
	if err != nil {
		return nil, err
	}

	sub, err := s.backend.SubscribeDaily(ctx, userID, month, dayKey)
	if err != nil {
		return nil, err
	}
	if err := track(s.session, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// DailyTasks returns a one-off snapshot of one day's tasks.
func (s *TaskService) DailyTasks(ctx context.Context, month string, day int) ([]models.DailyTask, error) {
	sub, err := s.ListDailyTasks(ctx, month, day)
	if err != nil {
		return nil, err
	}
	defer sub.Cancel()
	return sub.Initial(), nil
}

// AddDailyTask creates an incomplete task for one day.
func (s *TaskService) AddDailyTask(ctx context.Context, month string, day int, title string) (*models.DailyTask, error) {
	userID, err := s.session.UserID()
	if err != nil {
		return nil, err
	}
	dayKey, err := checkDay(month, day)
	if err != nil {
		return nil, err
	}
	title, err = cleanTitle(title)
	if err != nil {
		return nil, err
	}
	return s.backend.AddDailyTask(ctx, userID, month, dayKey, title)
}

// ToggleDailyTask flips a daily task's completed flag.
func (s *TaskService) ToggleDailyTask(ctx context.Context, month string, day int, id string) error {
	userID, err := s.session.UserID()
	if err != nil {
		return err
	}
	dayKey, err := checkDay(month, day)
	if err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	return s.backend.ToggleDailyTask(ctx, userID, month, dayKey, id)
}

// DeleteDailyTask permanently removes a daily task.
func (s *TaskService) DeleteDailyTask(ctx context.Context, month string, day int, id string) error {
	userID, err := s.session.UserID()
	if err != nil {
		return err
	}
	dayKey, err := checkDay(month, day)
	if err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	return s.backend.DeleteDailyTask(ctx, userID, month, dayKey, id)
}
