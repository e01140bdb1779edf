package store

import (
	"context"
	"errors"
	"path"
	"time"

	"task-calendar/app/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreBackend stores tasks in Cloud Firestore and uses its native query
// listeners for live snapshots, so changes from any client are pushed.
//
// Layout:
//
//	users/{uid}/months/{YYYY-MM}/tasks/{id}
//	users/{uid}/months/{YYYY-MM}/dailyTasks/{dd}/tasks/{id}
type FirestoreBackend struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreBackend creates a backend over client.
func NewFirestoreBackend(client *firestore.Client) *FirestoreBackend {
	return &FirestoreBackend{client: client, now: time.Now}
}

func recurringPath(userID, month string) string {
	return path.Join("users", userID, "months", month, "tasks")
}

func dailyPath(userID, month, dayKey string) string {
	return path.Join("users", userID, "months", month, "dailyTasks", dayKey, "tasks")
}

// checkPath addresses one day inside a task's checks map.
func checkPath(dayKey string) firestore.FieldPath {
	return firestore.FieldPath{"checks", dayKey}
}

// firestoreErr maps a Firestore status to the store's error taxonomy.
func firestoreErr(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return notFound(kind, id)
	}
	return unavailable(err)
}

// listen turns a Firestore query listener into a Subscription. The first
// snapshot is read synchronously; later ones are forwarded by a goroutine
// that exits when the subscription is cancelled.
func listen[T any](ctx context.Context, q firestore.Query, decode func([]*firestore.DocumentSnapshot) (T, error)) (*Subscription[T], error) {
	lctx, cancel := context.WithCancel(context.Background())
	// Until the first snapshot arrives the caller's context bounds the wait.
	detach := context.AfterFunc(ctx, cancel)

	it := q.Snapshots(lctx)
	initial, err := nextSnapshot(it, decode)
	if !detach() || err != nil {
		it.Stop()
		cancel()
		if err == nil {
			err = ctx.Err()
		}
		return nil, unavailable(err)
	}

	sub := newSubscription(initial)
	stopped := make(chan struct{})
	sub.onCancel(func() {
		it.Stop()
		cancel()
		<-stopped
	})

	go func() {
		defer close(stopped)
		for {
			next, err := nextSnapshot(it, decode)
			if err != nil {
				if lctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				// The iterator keeps returning the same error; report it once.
				sub.Fail(unavailable(err))
				return
			}
			sub.Push(next)
		}
	}()
	return sub, nil
}

func nextSnapshot[T any](it *firestore.QuerySnapshotIterator, decode func([]*firestore.DocumentSnapshot) (T, error)) (T, error) {
	var zero T
	snap, err := it.Next()
	if err != nil {
		return zero, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return zero, err
	}
	return decode(docs)
}

func decodeRecurring(docs []*firestore.DocumentSnapshot) ([]models.RecurringTask, error) {
	tasks := make([]models.RecurringTask, 0, len(docs))
	for _, doc := range docs {
		var t models.RecurringTask
		if err := doc.DataTo(&t); err != nil {
			return nil, err
		}
		t.ID = doc.Ref.ID
		t.Checks = dayChecks(t.Checks)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func decodeDaily(docs []*firestore.DocumentSnapshot) ([]models.DailyTask, error) {
	tasks := make([]models.DailyTask, 0, len(docs))
	for _, doc := range docs {
		var t models.DailyTask
		if err := doc.DataTo(&t); err != nil {
			return nil, err
		}
		t.ID = doc.Ref.ID
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// SubscribeRecurring listens to a month's recurring tasks ordered by createdAt.
func (b *FirestoreBackend) SubscribeRecurring(ctx context.Context, userID, month string) (*Subscription[[]models.RecurringTask], error) {
	q := b.client.Collection(recurringPath(userID, month)).OrderBy("createdAt", firestore.Asc)
	return listen(ctx, q, decodeRecurring)
}

// AddRecurringTask adds a task document with an empty checks map.
func (b *FirestoreBackend) AddRecurringTask(ctx context.Context, userID, month, title string) (*models.RecurringTask, error) {
	task := models.RecurringTask{
		Title:     title,
		CreatedAt: b.now().UTC(),
		Checks:    map[string]bool{},
	}
	ref, _, err := b.client.Collection(recurringPath(userID, month)).Add(ctx, task)
	if err != nil {
		return nil, unavailable(err)
	}
	task.ID = ref.ID
	return &task, nil
}

// DeleteRecurringTask deletes a task document; a missing document is ErrNotFound.
func (b *FirestoreBackend) DeleteRecurringTask(ctx context.Context, userID, month, id string) error {
	_, err := b.client.Collection(recurringPath(userID, month)).Doc(id).Delete(ctx, firestore.Exists)
	return firestoreErr("recurring task", id, err)
}

// MergeCheck updates the single field checks.<dayKey>.
func (b *FirestoreBackend) MergeCheck(ctx context.Context, userID, month, id, dayKey string, value bool) error {
	ref := b.client.Collection(recurringPath(userID, month)).Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{{FieldPath: checkPath(dayKey), Value: value}})
	return firestoreErr("recurring task", id, err)
}

// SubscribeDaily listens to one day's tasks ordered by createdAt.
func (b *FirestoreBackend) SubscribeDaily(ctx context.Context, userID, month, dayKey string) (*Subscription[[]models.DailyTask], error) {
	q := b.client.Collection(dailyPath(userID, month, dayKey)).OrderBy("createdAt", firestore.Asc)
	return listen(ctx, q, decodeDaily)
}

// AddDailyTask adds an incomplete daily task document.
func (b *FirestoreBackend) AddDailyTask(ctx context.Context, userID, month, dayKey, title string) (*models.DailyTask, error) {
	task := models.DailyTask{
		Title:     title,
		CreatedAt: b.now().UTC(),
	}
	ref, _, err := b.client.Collection(dailyPath(userID, month, dayKey)).Add(ctx, task)
	if err != nil {
		return nil, unavailable(err)
	}
	task.ID = ref.ID
	return &task, nil
}

// ToggleDailyTask flips completed inside a transaction.
func (b *FirestoreBackend) ToggleDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	ref := b.client.Collection(dailyPath(userID, month, dayKey)).Doc(id)
	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		completed, _ := snap.Data()["completed"].(bool)
		return tx.Update(ref, []firestore.Update{{Path: "completed", Value: !completed}})
	})
	return firestoreErr("daily task", id, err)
}

// DeleteDailyTask deletes a daily task document.
func (b *FirestoreBackend) DeleteDailyTask(ctx context.Context, userID, month, dayKey, id string) error {
	_, err := b.client.Collection(dailyPath(userID, month, dayKey)).Doc(id).Delete(ctx, firestore.Exists)
	return firestoreErr("daily task", id, err)
}

// Close closes the Firestore client.
func (b *FirestoreBackend) Close(ctx context.Context) error {
	return b.client.Close()
}
