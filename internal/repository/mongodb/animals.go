package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const animalsCollection = "animals"

// AnimalRepository is a read model over the herd records owned by the
// surrounding CRUD layer.
type AnimalRepository struct {
	coll *mongo.Collection
}

// NewAnimalRepository builds an animal read model on the given database.
func NewAnimalRepository(db *mongo.Database) *AnimalRepository {
	return &AnimalRepository{coll: db.Collection(animalsCollection)}
}

// CountActive returns the current live head count.
func (r *AnimalRepository) CountActive(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"status": models.StatusActive})
	if err != nil {
		return 0, fmt.Errorf("count active animals: %w", err)
	}
	return count, nil
}

// RegisteredBetween returns animals whose record was created in the range.
// The reconciler splits these into births and purchases by source.
func (r *AnimalRepository) RegisteredBetween(ctx context.Context, from, to time.Time) ([]models.Animal, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"created_at": bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	var animals []models.Animal
	if err := cursor.All(ctx, &animals); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return animals, nil
}
