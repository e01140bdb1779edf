package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"task-calendar/app/models"

	"github.com/google/uuid"
)

// MemoryBackend keeps tasks in process. It backs local development and tests.
type MemoryBackend struct {
	mu        sync.RWMutex
	recurring map[string][]*models.RecurringTask
	daily     map[string][]*models.DailyTask
	hub       *hub
	now       func() time.Time
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock overrides the clock used for created_at timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) { m.now = now }
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		recurring: make(map[string][]*models.RecurringTask),
		daily:     make(map[string][]*models.DailyTask),
		hub:       newHub(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ActiveSubscriptions returns how many live queries are open.
func (m *MemoryBackend) ActiveSubscriptions() int {
	return m.hub.active()
}

// SubscribeRecurring opens a live query over a month's recurring tasks.
func (m *MemoryBackend) SubscribeRecurring(ctx context.Context, userID, month string) (*Subscription[[]models.RecurringTask], error) {
	scope := recurringScope(userID, month)
	return watch(ctx, m.hub, scope, func(context.Context) ([]models.RecurringTask, error) {
		return m.recurringSnapshot(scope), nil
	})
}

func (m *MemoryBackend) recurringSnapshot(scope string) []models.RecurringTask {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]models.RecurringTask, 0, len(m.recurring[scope]))
	for _, t := range m.recurring[scope] {
		cp := *t
		cp.Checks = cloneChecks(t.Checks)
		tasks = append(tasks, cp)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// AddRecurringTask stores a new task with an empty check map.
func (m *MemoryBackend) AddRecurringTask(ctx context.Context, userID, month, title string) (*models.RecurringTask, error) {
	scope := recurringScope(userID, month)
	task := &models.RecurringTask{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: m.now().UTC(),
		Checks:    map[string]bool{},
	}

	m.mu.Lock()
	m.recurring[scope] = append(m.recurring[scope], task)
	out := *task
	out.Checks = cloneChecks(task.Checks)
	m.mu.Unlock()

	m.hub.notify(scope)
	return &out, nil
}

// DeleteRecurringTask removes a task and its checks.
func (m *MemoryBackend) DeleteRecurringTask(ctx context.Context, userID, month, id string) error {
	scope := recurringScope(userID, month)

	m.mu.Lock()
	tasks := m.recurring[scope]
	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return notFound("recurring task", id)
	}
	m.recurring[scope] = append(tasks[:idx:idx], tasks[idx+1:]...)
	m.mu.Unlock()

	m.hub.notify(scope)
	return nil
}

// MergeCheck sets a single day of a task's check map.
func (m *MemoryBackend) MergeCheck(ctx context.Context, userID, month, id, dayKey string, value bool) error {
	scope := recurringScope(userID, month)

	m.mu.Lock()
	var task *models.RecurringTask
	for _, t := range m.recurring[scope] {
		if t.ID == id {
			task = t
			break
		}
	}
	if task == nil {
		m.mu.Unlock()
		return notFound("recurring task", id)
	}
	if task.Checks == nil {
		task.Checks = map[string]bool{}
	}
	task.Checks[dayKey] = value
	m.mu.Unlock()

	m.hub.notify(scope)
	return nil
}

// SubscribeDaily opens a live query over one day's tasks.
func (m *MemoryBackend) SubscribeDaily(ctx context.Context, userID, month, dayKey string) (*Subscription[[]models.DailyTask], error) {
	scope := dailyScope(userID, month, dayKey)
	return watch(ctx, m.hub, scope, func(context.Context) ([]models.DailyTask, error) {
		return m.dailySnapshot(scope), nil
	})
}

func (m *MemoryBackend) dailySnapshot(scope string) []models.DailyTask {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]models.DailyTask, 0, len(m.daily[scope]))
	for _, t := range m.daily[scope] {
		tasks = append(tasks, *t)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// AddDailyTask stores a new incomplete task for one day.
func (m *MemoryBackend) AddDailyTask(ctx context.Context, userID, month, dayKey, title string) (*models.DailyTask, error) {
	scope := dailyScope(userID, month, dayKey)
	task := &models.DailyTask{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.daily[scope] = append(m.daily[scope], task)
	out := *task
	m.mu.Unlock()

	m.hub.notify(scope)
	return &out, nil
}

// ToggleDailyTask flips the completed flag of a daily task.
func (m *MemoryBackend) ToggleDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	scope := dailyScope(userID, month, dayKey)

	m.mu.Lock()
	found := false
	for _, t := range m.daily[scope] {
		if t.ID == id {
			t.Completed = !t.Completed
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return notFound("daily task", id)
	}

	m.hub.notify(scope)
	return nil
}

// DeleteDailyTask removes a daily task.
func (m *MemoryBackend) DeleteDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	scope := dailyScope(userID, month, dayKey)

	m.mu.Lock()
	tasks := m.daily[scope]
	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return notFound("daily task", id)
	}
	m.daily[scope] = append(tasks[:idx:idx], tasks[idx+1:]...)
	m.mu.Unlock()

	m.hub.notify(scope)
	return nil
}

// Close is a no-op; subscriptions are cancelled by their owners.
func (m *MemoryBackend) Close(ctx context.Context) error {
	return nil
}
