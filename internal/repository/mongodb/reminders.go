package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const remindersCollection = "reminders"

// ReminderRepository persists reminders and enforces the active-uniqueness
// invariant on (type, reference_id, reference_category, due_date).
type ReminderRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewReminderRepository builds a reminder repository on the given database.
func NewReminderRepository(db *mongo.Database) *ReminderRepository {
	return &ReminderRepository{
		coll: db.Collection(remindersCollection),
		now:  time.Now,
	}
}

// EnsureIndexes creates the unique partial index backing deduplication.
// Insert-on-conflict through this index closes the read-then-write race that a
// lookup-before-insert would leave open.
func (r *ReminderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "reference_id", Value: 1},
			{Key: "reference_category", Value: 1},
			{Key: "due_date", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"is_completed": false}),
	})
	if err != nil {
		return fmt.Errorf("create reminders unique index: %w", err)
	}
	return nil
}

// Create inserts a reminder unless an active duplicate already exists. The
// second return value reports whether a new row was written; on conflict the
// existing reminder is returned instead.
func (r *ReminderRepository) Create(ctx context.Context, reminder models.Reminder) (models.Reminder, bool, error) {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = r.now().UTC()
	}
	reminder.DueDate = reminder.DueDate.UTC().Truncate(24 * time.Hour)

	if _, err := r.coll.InsertOne(ctx, reminder); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, findErr := r.findActiveDuplicate(ctx, reminder)
			if findErr != nil {
				return models.Reminder{}, false, findErr
			}
			return existing, false, nil
		}
		return models.Reminder{}, false, fmt.Errorf("insert reminder: %w", err)
	}

	return reminder, true, nil
}

// ListActive returns non-completed reminders due within the horizon, ascending
// by due date. Overdue reminders are included.
func (r *ReminderRepository) ListActive(ctx context.Context, withinDays int) ([]models.Reminder, error) {
	horizon := r.now().UTC().AddDate(0, 0, withinDays)

	cursor, err := r.coll.Find(ctx, bson.M{
		"is_completed": false,
		"due_date":     bson.M{"$lte": horizon},
	}, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}

	var reminders []models.Reminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("decode active reminders: %w", err)
	}
	return reminders, nil
}

// ListDueForNotification returns reminders that are due today or earlier and
// have not yet produced a notification.
func (r *ReminderRepository) ListDueForNotification(ctx context.Context) ([]models.Reminder, error) {
	endOfToday := endOfDay(r.now().UTC())

	cursor, err := r.coll.Find(ctx, bson.M{
		"is_completed":      false,
		"notification_sent": false,
		"due_date":          bson.M{"$lte": endOfToday},
	}, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}

	var reminders []models.Reminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("decode due reminders: %w", err)
	}
	return reminders, nil
}

// Complete marks a reminder done. Completion is always an explicit caller
// action; the store never completes reminders on its own.
func (r *ReminderRepository) Complete(ctx context.Context, id string) (models.Reminder, error) {
	completedAt := r.now().UTC()

	var updated models.Reminder
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_completed": true, "completed_at": completedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Reminder{}, models.ErrNotFound
		}
		return models.Reminder{}, fmt.Errorf("complete reminder %s: %w", id, err)
	}
	return updated, nil
}

// MarkNotified flips the one-way notification_sent flag.
func (r *ReminderRepository) MarkNotified(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notification_sent": true}},
	)
	if err != nil {
		return fmt.Errorf("mark reminder %s notified: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Purge physically deletes a reminder. Administrative use only.
func (r *ReminderRepository) Purge(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("purge reminder %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) findActiveDuplicate(ctx context.Context, reminder models.Reminder) (models.Reminder, error) {
	var existing models.Reminder
	err := r.coll.FindOne(ctx, bson.M{
		"type":               reminder.Type,
		"reference_id":       reminder.ReferenceID,
		"reference_category": reminder.ReferenceCategory,
		"due_date":           reminder.DueDate,
		"is_completed":       false,
	}).Decode(&existing)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("load duplicate reminder: %w", err)
	}
	return existing, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
