package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const usersCollection = "users"

// UserRepository reads the farm-staff accounts owned by the auth layer. Only
// the active-recipient projection is needed here, for broadcast fan-out.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository builds a user read model on the given database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// ListActiveRecipients returns the ids of users eligible to receive
// broadcast notifications.
func (r *UserRepository) ListActiveRecipients(ctx context.Context) ([]string, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode active users: %w", err)
	}

	recipients := make([]string, 0, len(docs))
	for _, d := range docs {
		recipients = append(recipients, d.ID)
	}
	return recipients, nil
}
