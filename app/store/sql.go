package store

import (
	"context"
	"errors"
	"time"

	"task-calendar/app/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recurringTaskRow struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"index:idx_recurring_scope;not null"`
	Month     string     `gorm:"index:idx_recurring_scope;size:7;not null"`
	Title     string     `gorm:"not null"`
	CreatedAt time.Time  `gorm:"index"`
	Checks    []checkRow `gorm:"foreignKey:TaskID"`
}

func (recurringTaskRow) TableName() string { return "recurring_tasks" }

// checkRow is one day of a recurring task's check map. The composite key
// makes a check an independently upsertable field.
type checkRow struct {
	TaskID string `gorm:"primaryKey;size:36"`
	Day    string `gorm:"primaryKey;size:2"`
	Value  bool   `gorm:"not null"`
}

func (checkRow) TableName() string { return "recurring_task_checks" }

type dailyTaskRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index:idx_daily_scope;not null"`
	Month     string    `gorm:"index:idx_daily_scope;size:7;not null"`
	Day       string    `gorm:"index:idx_daily_scope;size:2;not null"`
	Title     string    `gorm:"not null"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
}

func (dailyTaskRow) TableName() string { return "daily_tasks" }

func (r recurringTaskRow) toModel() models.RecurringTask {
	checks := make(map[string]bool, len(r.Checks))
	for _, c := range r.Checks {
		checks[c.Day] = c.Value
	}
	return models.RecurringTask{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt, Checks: checks}
}

func (r dailyTaskRow) toModel() models.DailyTask {
	return models.DailyTask{ID: r.ID, Title: r.Title, Completed: r.Completed, CreatedAt: r.CreatedAt}
}

// SQLBackend stores tasks in a relational database through gorm. Writes made
// through this backend are pushed to subscribers immediately; writes from other
// processes show up on the next Poll.
type SQLBackend struct {
	db  *gorm.DB
	hub *hub
	now func() time.Time
}

// NewSQLBackend migrates the schema and returns a backend over db.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&recurringTaskRow{}, &checkRow{}, &dailyTaskRow{}); err != nil {
		return nil, unavailable(err)
	}
	return &SQLBackend{db: db, hub: newHub(), now: time.Now}, nil
}

// Poll re-queries every watched scope and pushes changed snapshots.
func (b *SQLBackend) Poll() {
	b.hub.poll()
}

// ActiveSubscriptions returns how many live queries are open.
func (b *SQLBackend) ActiveSubscriptions() int {
	return b.hub.active()
}

func (b *SQLBackend) listRecurring(ctx context.Context, userID, month string) ([]models.RecurringTask, error) {
	var rows []recurringTaskRow
	err := b.db.WithContext(ctx).
		Preload("Checks").
		Where("user_id = ? AND month = ?", userID, month).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]models.RecurringTask, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// SubscribeRecurring opens a live query over a month's recurring tasks.
func (b *SQLBackend) SubscribeRecurring(ctx context.Context, userID, month string) (*Subscription[[]models.RecurringTask], error) {
	return watch(ctx, b.hub, recurringScope(userID, month), func(ctx context.Context) ([]models.RecurringTask, error) {
		return b.listRecurring(ctx, userID, month)
	})
}

// AddRecurringTask inserts a task with no checks.
func (b *SQLBackend) AddRecurringTask(ctx context.Context, userID, month, title string) (*models.RecurringTask, error) {
	row := recurringTaskRow{
		ID:        uuid.New().String(),
		UserID:    userID,
		Month:     month,
		Title:     title,
		CreatedAt: b.now().UTC(),
	}
	if err := b.db.WithContext(ctx).Omit("Checks").Create(&row).Error; err != nil {
		return nil, unavailable(err)
	}

	b.hub.notify(recurringScope(userID, month))
	task := row.toModel()
	return &task, nil
}

// DeleteRecurringTask removes a task together with its checks.
func (b *SQLBackend) DeleteRecurringTask(ctx context.Context, userID, month, id string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := b.findRecurring(tx, userID, month, id); err != nil {
			return err
		}
		// Checks go first so an enforced foreign key never blocks the task row.
		if err := tx.Where("task_id = ?", id).Delete(&checkRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&recurringTaskRow{}).Error
	})
	if err != nil {
		return unavailable(err)
	}

	b.hub.notify(recurringScope(userID, month))
	return nil
}

func (b *SQLBackend) findRecurring(tx *gorm.DB, userID, month, id string) error {
	var row recurringTaskRow
	err := tx.Select("id").Where("id = ? AND user_id = ? AND month = ?", id, userID, month).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("recurring task", id)
	}
	return err
}

// MergeCheck upserts a single check row, leaving the task's other days alone.
func (b *SQLBackend) MergeCheck(ctx context.Context, userID, month, id, dayKey string, value bool) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := b.findRecurring(tx, userID, month, id); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&checkRow{TaskID: id, Day: dayKey, Value: value}).Error
	})
	if err != nil {
		return unavailable(err)
	}

	b.hub.notify(recurringScope(userID, month))
	return nil
}

func (b *SQLBackend) listDaily(ctx context.Context, userID, month, dayKey string) ([]models.DailyTask, error) {
	var rows []dailyTaskRow
	err := b.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND day = ?", userID, month, dayKey).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]models.DailyTask, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// SubscribeDaily opens a live query over one day's tasks.
func (b *SQLBackend) SubscribeDaily(ctx context.Context, userID, month, dayKey string) (*Subscription[[]models.DailyTask], error) {
	return watch(ctx, b.hub, dailyScope(userID, month, dayKey), func(ctx context.Context) ([]models.DailyTask, error) {
		return b.listDaily(ctx, userID, month, dayKey)
	})
}

// AddDailyTask inserts an incomplete task for one day.
func (b *SQLBackend) AddDailyTask(ctx context.Context, userID, month, dayKey, title string) (*models.DailyTask, error) {
	row := dailyTaskRow{
		ID:        uuid.New().String(),
		UserID:    userID,
		Month:     month,
		Day:       dayKey,
		Title:     title,
		CreatedAt: b.now().UTC(),
	}
	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, unavailable(err)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	task := row.toModel()
	return &task, nil
}

// ToggleDailyTask flips completed in a single UPDATE.
func (b *SQLBackend) ToggleDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	res := b.db.WithContext(ctx).
		Model(&dailyTaskRow{}).
		Where("id = ? AND user_id = ? AND month = ? AND day = ?", id, userID, month, dayKey).
		Update("completed", gorm.Expr("NOT completed"))
	if res.Error != nil {
		return unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("daily task", id)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	return nil
}

// DeleteDailyTask removes a daily task.
func (b *SQLBackend) DeleteDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	res := b.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND month = ? AND day = ?", id, userID, month, dayKey).
		Delete(&dailyTaskRow{})
	if res.Error != nil {
		return unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("daily task", id)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	return nil
}

// Close releases the underlying connection pool.
func (b *SQLBackend) Close(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
