package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const (
	growthCollection  = "growth_records"
	feedingCollection = "feeding_records"
)

// HusbandryRepository persists the growth observations and feeding provision
// rows created by the schedule bootstrap.
type HusbandryRepository struct {
	growth  *mongo.Collection
	feeding *mongo.Collection
	now     func() time.Time
}

// NewHusbandryRepository builds the husbandry repository on the given database.
func NewHusbandryRepository(db *mongo.Database) *HusbandryRepository {
	return &HusbandryRepository{
		growth:  db.Collection(growthCollection),
		feeding: db.Collection(feedingCollection),
		now:     time.Now,
	}
}

// CreateGrowthRecord writes one weight observation.
func (r *HusbandryRepository) CreateGrowthRecord(ctx context.Context, record models.GrowthRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = r.now().UTC()
	}

	if _, err := r.growth.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert growth record: %w", err)
	}
	return nil
}

// CreateFeedingRecord writes one feeding provision row.
func (r *HusbandryRepository) CreateFeedingRecord(ctx context.Context, record models.FeedingRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = r.now().UTC()
	}

	if _, err := r.feeding.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert feeding record: %w", err)
	}
	return nil
}
