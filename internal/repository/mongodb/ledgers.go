package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const (
	healthEventsCollection = "health_events"
	salesCollection        = "sales"
	expensesCollection     = "expenses"
)

// LedgerRepository is a read model over the transaction collections the
// reconciler and the sweep aggregate from.
type LedgerRepository struct {
	health   *mongo.Collection
	sales    *mongo.Collection
	expenses *mongo.Collection
}

// NewLedgerRepository builds the ledger read model on the given database.
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		health:   db.Collection(healthEventsCollection),
		sales:    db.Collection(salesCollection),
		expenses: db.Collection(expensesCollection),
	}
}

type saleDoc struct {
	ID       string             `bson:"_id"`
	AnimalID string             `bson:"animal_id"`
	Date     time.Time          `bson:"date"`
	Channel  models.SaleChannel `bson:"channel"`
	Buyer    string             `bson:"buyer"`
	Amount   float64            `bson:"amount"`
}

type expenseDoc struct {
	ID       string    `bson:"_id"`
	Date     time.Time `bson:"date"`
	Category string    `bson:"category"`
	Amount   float64   `bson:"amount"`
	Notes    string    `bson:"notes"`
}

// HealthEventsBetween returns health-log entries dated within the range.
func (r *LedgerRepository) HealthEventsBetween(ctx context.Context, from, to time.Time) ([]models.HealthEvent, error) {
	cursor, err := r.health.Find(ctx, bson.M{"date": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return nil, fmt.Errorf("list health events: %w", err)
	}

	var events []models.HealthEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode health events: %w", err)
	}
	return events, nil
}

// OpenIssues returns health events that are still ongoing.
func (r *LedgerRepository) OpenIssues(ctx context.Context) ([]models.HealthEvent, error) {
	cursor, err := r.health.Find(ctx, bson.M{"outcome": models.OutcomeOngoing})
	if err != nil {
		return nil, fmt.Errorf("list open health issues: %w", err)
	}

	var events []models.HealthEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode open health issues: %w", err)
	}
	return events, nil
}

// SalesBetween returns sales-ledger entries dated within the range.
func (r *LedgerRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]models.SaleRecord, error) {
	cursor, err := r.sales.Find(ctx, bson.M{"date": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	var docs []saleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}

	records := make([]models.SaleRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, models.SaleRecord{
			ID:       d.ID,
			AnimalID: d.AnimalID,
			Date:     d.Date,
			Channel:  d.Channel,
			Buyer:    d.Buyer,
			Amount:   decimal.NewFromFloat(d.Amount),
		})
	}
	return records, nil
}

// ExpensesBetween returns expense-ledger entries dated within the range.
func (r *LedgerRepository) ExpensesBetween(ctx context.Context, from, to time.Time) ([]models.ExpenseRecord, error) {
	cursor, err := r.expenses.Find(ctx, bson.M{"date": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	records := make([]models.ExpenseRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, models.ExpenseRecord{
			ID:       d.ID,
			Date:     d.Date,
			Category: d.Category,
			Amount:   decimal.NewFromFloat(d.Amount),
			Notes:    d.Notes,
		})
	}
	return records, nil
}
