package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const snapshotsCollection = "monthly_snapshots"

// SnapshotRepository persists one reconciled snapshot per month key.
type SnapshotRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewSnapshotRepository builds a snapshot repository on the given database.
func NewSnapshotRepository(db *mongo.Database) *SnapshotRepository {
	return &SnapshotRepository{
		coll: db.Collection(snapshotsCollection),
		now:  time.Now,
	}
}

// EnsureIndexes creates the unique month-key index backing the upsert.
func (r *SnapshotRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "month_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create snapshots unique index: %w", err)
	}
	return nil
}

// snapshotDoc is the stored shape. Money amounts are kept as decimal strings
// so no precision is lost crossing the driver.
type snapshotDoc struct {
	MonthKey      string    `bson:"month_key"`
	OpeningCount  int       `bson:"opening_count"`
	Births        int       `bson:"births"`
	Purchases     int       `bson:"purchases"`
	Deaths        int       `bson:"deaths"`
	SoldBreeding  int       `bson:"sold_breeding"`
	SoldMeat      int       `bson:"sold_meat"`
	ClosingCount  int       `bson:"closing_count"`
	TotalExpenses string    `bson:"total_expenses"`
	TotalIncome   string    `bson:"total_income"`
	NetProfit     string    `bson:"net_profit"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// Get loads the snapshot for the given month key.
func (r *SnapshotRepository) Get(ctx context.Context, monthKey string) (models.MonthlySnapshot, error) {
	var doc snapshotDoc
	err := r.coll.FindOne(ctx, bson.M{"month_key": monthKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MonthlySnapshot{}, models.ErrNotFound
		}
		return models.MonthlySnapshot{}, fmt.Errorf("load snapshot %s: %w", monthKey, err)
	}
	return doc.toModel()
}

// Upsert writes the snapshot for its month key, updating in place when the
// month has been reconciled before.
func (r *SnapshotRepository) Upsert(ctx context.Context, s models.MonthlySnapshot) (models.MonthlySnapshot, error) {
	now := r.now().UTC()

	update := bson.M{
		"$set": bson.M{
			"opening_count":  s.OpeningCount,
			"births":         s.Births,
			"purchases":      s.Purchases,
			"deaths":         s.Deaths,
			"sold_breeding":  s.SoldBreeding,
			"sold_meat":      s.SoldMeat,
			"closing_count":  s.ClosingCount,
			"total_expenses": s.TotalExpenses.String(),
			"total_income":   s.TotalIncome.String(),
			"net_profit":     s.NetProfit.String(),
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"month_key":  s.MonthKey,
			"created_at": now,
		},
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"month_key": s.MonthKey}, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.MonthlySnapshot{}, fmt.Errorf("upsert snapshot %s: %w", s.MonthKey, err)
	}

	return r.Get(ctx, s.MonthKey)
}

func (d snapshotDoc) toModel() (models.MonthlySnapshot, error) {
	expenses, err := decimal.NewFromString(d.TotalExpenses)
	if err != nil {
		return models.MonthlySnapshot{}, fmt.Errorf("parse stored expenses %q: %w", d.TotalExpenses, err)
	}
	income, err := decimal.NewFromString(d.TotalIncome)
	if err != nil {
		return models.MonthlySnapshot{}, fmt.Errorf("parse stored income %q: %w", d.TotalIncome, err)
	}
	profit, err := decimal.NewFromString(d.NetProfit)
	if err != nil {
		return models.MonthlySnapshot{}, fmt.Errorf("parse stored profit %q: %w", d.NetProfit, err)
	}

	return models.MonthlySnapshot{
		MonthKey:      d.MonthKey,
		OpeningCount:  d.OpeningCount,
		Births:        d.Births,
		Purchases:     d.Purchases,
		Deaths:        d.Deaths,
		SoldBreeding:  d.SoldBreeding,
		SoldMeat:      d.SoldMeat,
		ClosingCount:  d.ClosingCount,
		TotalExpenses: expenses,
		TotalIncome:   income,
		NetProfit:     profit,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}
