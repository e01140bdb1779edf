package store

import (
	"context"
	"fmt"
	"time"

	"task-calendar/app/dates"
	"task-calendar/app/models"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jBackend stores tasks as graph nodes. Each check is its own
// (:Check {day, value}) node hanging off the task, so setting one day is a
// MERGE on that node and never rewrites the others.
type Neo4jBackend struct {
	driver neo4j.DriverWithContext
	hub    *hub
	now    func() time.Time
}

// NewNeo4jBackend creates a backend over driver and ensures its constraints exist.
func NewNeo4jBackend(ctx context.Context, driver neo4j.DriverWithContext) (*Neo4jBackend, error) {
	b := &Neo4jBackend{driver: driver, hub: newHub(), now: time.Now}
	if err := b.migrate(ctx); err != nil {
		return nil, unavailable(err)
	}
	return b, nil
}

func (b *Neo4jBackend) migrate(ctx context.Context) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range neo4jSchema {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return err
		}
		if _, err := res.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}

var neo4jSchema = []string{
	"CREATE CONSTRAINT recurring_task_id IF NOT EXISTS FOR (t:RecurringTask) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT daily_task_id IF NOT EXISTS FOR (t:DailyTask) REQUIRE t.id IS UNIQUE",
	"CREATE INDEX recurring_task_scope IF NOT EXISTS FOR (t:RecurringTask) ON (t.user_id, t.month)",
	"CREATE INDEX daily_task_scope IF NOT EXISTS FOR (t:DailyTask) ON (t.user_id, t.month, t.day)",
}

const (
	cypherListRecurring = "MATCH (t:RecurringTask {user_id: $userID, month: $month}) " +
		"OPTIONAL MATCH (t)-[:HAS_CHECK]->(c:Check) " +
		"WITH t, collect(c) AS cs " +
		"RETURN t.id AS id, t.title AS title, t.created_at AS created_at, " +
		"[x IN cs | [x.day, x.value]] AS checks " +
		"ORDER BY created_at ASC, id ASC"

	cypherCreateRecurring = "CREATE (t:RecurringTask {id: $id, user_id: $userID, month: $month, " +
		"title: $title, created_at: $createdAt})"

	cypherDeleteRecurring = "MATCH (t:RecurringTask {id: $id, user_id: $userID, month: $month}) " +
		"OPTIONAL MATCH (t)-[:HAS_CHECK]->(c:Check) " +
		"WITH t, collect(c) AS cs " +
		"FOREACH (x IN cs | DETACH DELETE x) " +
		"DETACH DELETE t " +
		"RETURN count(*) AS deleted"

	cypherMergeCheck = "MATCH (t:RecurringTask {id: $id, user_id: $userID, month: $month}) " +
		"MERGE (t)-[:HAS_CHECK]->(c:Check {day: $day}) " +
		"SET c.value = $value " +
		"RETURN t.id AS id"

	cypherListDaily = "MATCH (d:DailyTask {user_id: $userID, month: $month, day: $day}) " +
		"RETURN d.id AS id, d.title AS title, d.completed AS completed, d.created_at AS created_at " +
		"ORDER BY created_at ASC, id ASC"

	cypherCreateDaily = "CREATE (d:DailyTask {id: $id, user_id: $userID, month: $month, day: $day, " +
		"title: $title, completed: false, created_at: $createdAt})"

	cypherToggleDaily = "MATCH (d:DailyTask {id: $id, user_id: $userID, month: $month, day: $day}) " +
		"SET d.completed = NOT coalesce(d.completed, false) " +
		"RETURN d.id AS id"

	cypherDeleteDaily = "MATCH (d:DailyTask {id: $id, user_id: $userID, month: $month, day: $day}) " +
		"DETACH DELETE d " +
		"RETURN count(*) AS deleted"
)

// Poll re-queries every watched scope and pushes changed snapshots.
func (b *Neo4jBackend) Poll() {
	b.hub.poll()
}

func (b *Neo4jBackend) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (b *Neo4jBackend) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// matched runs a write statement and reports whether it touched a node. The
// statement must return either a row per match or a single count(*) column.
func (b *Neo4jBackend) matched(ctx context.Context, cypher string, params map[string]any) (bool, error) {
	result, err := b.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return false, err
		}
		if !res.Next(ctx) {
			return false, res.Err()
		}
		if n, ok := res.Record().Values[0].(int64); ok {
			return n > 0, nil
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (b *Neo4jBackend) listRecurring(ctx context.Context, userID, month string) ([]models.RecurringTask, error) {
	result, err := b.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypherListRecurring, map[string]any{"userID": userID, "month": month})
		if err != nil {
			return nil, err
		}

		tasks := []models.RecurringTask{}
		for res.Next(ctx) {
			record := res.Record()
			task, err := recurringFromRecord(record.Values)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.RecurringTask), nil
}

// recurringFromRecord decodes [id, title, created_at, [[day, value], ...]].
func recurringFromRecord(values []any) (models.RecurringTask, error) {
	if len(values) != 4 {
		return models.RecurringTask{}, fmt.Errorf("unexpected record width %d", len(values))
	}
	id, _ := values[0].(string)
	title, _ := values[1].(string)
	createdAt, _ := values[2].(int64)

	checks := map[string]bool{}
	pairs, _ := values[3].([]any)
	for _, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		day, ok := pair[0].(string)
		if !ok {
			continue
		}
		if _, err := dates.ParseDayKey(day); err != nil {
			continue
		}
		value, _ := pair[1].(bool)
		checks[day] = value
	}

	return models.RecurringTask{
		ID:        id,
		Title:     title,
		CreatedAt: time.UnixMilli(createdAt).UTC(),
		Checks:    checks,
	}, nil
}

// SubscribeRecurring opens a live query over a month's recurring tasks.
func (b *Neo4jBackend) SubscribeRecurring(ctx context.Context, userID, month string) (*Subscription[[]models.RecurringTask], error) {
	return watch(ctx, b.hub, recurringScope(userID, month), func(ctx context.Context) ([]models.RecurringTask, error) {
		return b.listRecurring(ctx, userID, month)
	})
}

// AddRecurringTask creates a task node with no checks.
func (b *Neo4jBackend) AddRecurringTask(ctx context.Context, userID, month, title string) (*models.RecurringTask, error) {
	task := &models.RecurringTask{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: b.now().UTC().Truncate(time.Millisecond),
		Checks:    map[string]bool{},
	}

	_, err := b.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypherCreateRecurring, map[string]any{
			"id":        task.ID,
			"userID":    userID,
			"month":     month,
			"title":     task.Title,
			"createdAt": task.CreatedAt.UnixMilli(),
		})
		return nil, err
	})
	if err != nil {
		return nil, unavailable(err)
	}

	b.hub.notify(recurringScope(userID, month))
	return task, nil
}

// DeleteRecurringTask removes a task node and its check nodes.
func (b *Neo4jBackend) DeleteRecurringTask(ctx context.Context, userID, month, id string) error {
	ok, err := b.matched(ctx, cypherDeleteRecurring, map[string]any{"id": id, "userID": userID, "month": month})
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return notFound("recurring task", id)
	}

	b.hub.notify(recurringScope(userID, month))
	return nil
}

// MergeCheck merges the check node for one day and sets its value.
func (b *Neo4jBackend) MergeCheck(ctx context.Context, userID, month, id, dayKey string, value bool) error {
	ok, err := b.matched(ctx, cypherMergeCheck, map[string]any{
		"id":     id,
		"userID": userID,
		"month":  month,
		"day":    dayKey,
		"value":  value,
	})
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return notFound("recurring task", id)
	}

	b.hub.notify(recurringScope(userID, month))
	return nil
}

func (b *Neo4jBackend) listDaily(ctx context.Context, userID, month, dayKey string) ([]models.DailyTask, error) {
	result, err := b.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypherListDaily, map[string]any{"userID": userID, "month": month, "day": dayKey})
		if err != nil {
			return nil, err
		}

		tasks := []models.DailyTask{}
		for res.Next(ctx) {
			tasks = append(tasks, dailyFromRecord(res.Record().Values))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.DailyTask), nil
}

// dailyFromRecord decodes [id, title, completed, created_at].
func dailyFromRecord(values []any) models.DailyTask {
	var task models.DailyTask
	if len(values) != 4 {
		return task
	}
	task.ID, _ = values[0].(string)
	task.Title, _ = values[1].(string)
	task.Completed, _ = values[2].(bool)
	createdAt, _ := values[3].(int64)
	task.CreatedAt = time.UnixMilli(createdAt).UTC()
	return task
}

// SubscribeDaily opens a live query over one day's tasks.
func (b *Neo4jBackend) SubscribeDaily(ctx context.Context, userID, month, dayKey string) (*Subscription[[]models.DailyTask], error) {
	return watch(ctx, b.hub, dailyScope(userID, month, dayKey), func(ctx context.Context) ([]models.DailyTask, error) {
		return b.listDaily(ctx, userID, month, dayKey)
	})
}

// AddDailyTask creates an incomplete daily task node.
func (b *Neo4jBackend) AddDailyTask(ctx context.Context, userID, month, dayKey, title string) (*models.DailyTask, error) {
	task := &models.DailyTask{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: b.now().UTC().Truncate(time.Millisecond),
	}

	_, err := b.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypherCreateDaily, map[string]any{
			"id":        task.ID,
			"userID":    userID,
			"month":     month,
			"day":       dayKey,
			"title":     task.Title,
			"createdAt": task.CreatedAt.UnixMilli(),
		})
		return nil, err
	})
	if err != nil {
		return nil, unavailable(err)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	return task, nil
}

// ToggleDailyTask flips completed on the matching node.
func (b *Neo4jBackend) ToggleDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	ok, err := b.matched(ctx, cypherToggleDaily, map[string]any{"id": id, "userID": userID, "month": month, "day": dayKey})
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return notFound("daily task", id)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	return nil
}

// DeleteDailyTask removes a daily task node.
func (b *Neo4jBackend) DeleteDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	ok, err := b.matched(ctx, cypherDeleteDaily, map[string]any{"id": id, "userID": userID, "month": month, "day": dayKey})
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return notFound("daily task", id)
	}

	b.hub.notify(dailyScope(userID, month, dayKey))
	return nil
}

// Close closes the driver.
func (b *Neo4jBackend) Close(ctx context.Context) error {
	return b.driver.Close(ctx)
}
