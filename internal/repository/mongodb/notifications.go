package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const notificationsCollection = "notifications"

const defaultPageSize = 50

// NotificationRepository persists per-recipient inbox rows. Every mutation is
// filtered on the recipient so one user can never touch another's rows.
type NotificationRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewNotificationRepository builds a notification repository on the given database.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		coll: db.Collection(notificationsCollection),
		now:  time.Now,
	}
}

// Insert writes one notification row.
func (r *NotificationRepository) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// List returns the recipient's notifications newest first, excluding expired
// rows. Expired rows stay in the collection; they are merely invisible here.
func (r *NotificationRepository) List(ctx context.Context, recipient string, f models.NotificationFilter, p models.Page) ([]models.Notification, error) {
	filter := r.buildFilter(recipient, f)

	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount counts the recipient's unread, non-expired notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	filter := r.buildFilter(recipient, models.NotificationFilter{UnreadOnly: true})

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Acting on another recipient's row
// yields ErrNotFound, never the row itself.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipient string) error {
	readAt := r.now().UTC()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true, "read_at": readAt}},
	)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient as read and
// returns how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	readAt := r.now().UTC()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": readAt}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// Delete removes one of the recipient's notifications.
func (r *NotificationRepository) Delete(ctx context.Context, id, recipient string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteAll removes every notification of the recipient and returns the count.
func (r *NotificationRepository) DeleteAll(ctx context.Context, recipient string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"recipient": recipient})
	if err != nil {
		return 0, fmt.Errorf("delete all notifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *NotificationRepository) buildFilter(recipient string, f models.NotificationFilter) bson.M {
	now := r.now().UTC()

	filter := bson.M{
		"recipient": recipient,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": now}},
		},
	}

	if f.UnreadOnly {
		filter["is_read"] = false
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.PerformedBy != "" {
		filter["performed_by.id"] = f.PerformedBy
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: f.Search, Options: "i"}
		filter["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"message": pattern},
		}}}
	}
	if f.From != nil || f.To != nil {
		createdAt := bson.M{}
		if f.From != nil {
			createdAt["$gte"] = *f.From
		}
		if f.To != nil {
			createdAt["$lte"] = *f.To
		}
		filter["created_at"] = createdAt
	}

	return filter
}
