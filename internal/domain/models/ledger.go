package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HealthOutcome marks how a health event ended.
type HealthOutcome string

const (
	OutcomeOngoing   HealthOutcome = "ongoing"
	OutcomeRecovered HealthOutcome = "recovered"
	OutcomeDeath     HealthOutcome = "death"
)

// HealthEvent is a health-log entry for one animal.
type HealthEvent struct {
	ID              string        `bson:"_id" json:"id"`
	AnimalID        string        `bson:"animal_id" json:"animal_id"`
	Date            time.Time     `bson:"date" json:"date"`
	Condition       string        `bson:"condition" json:"condition"`
	Outcome         HealthOutcome `bson:"outcome" json:"outcome"`
	LastTreatmentAt *time.Time    `bson:"last_treatment_at,omitempty" json:"last_treatment_at,omitempty"`
}

// SaleChannel splits sales between breeding stock and meat.
type SaleChannel string

const (
	ChannelBreeding SaleChannel = "breeding"
	ChannelMeat     SaleChannel = "meat"
)

// SaleRecord is one sales-ledger entry.
type SaleRecord struct {
	ID       string          `json:"id"`
	AnimalID string          `json:"animal_id"`
	Date     time.Time       `json:"date"`
	Channel  SaleChannel     `json:"channel"`
	Buyer    string          `json:"buyer"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExpenseRecord is one expense-ledger entry.
type ExpenseRecord struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Notes    string          `json:"notes"`
}

// GrowthRecord is one weight observation for a young animal.
type GrowthRecord struct {
	ID       string    `bson:"_id" json:"id"`
	AnimalID string    `bson:"animal_id" json:"animal_id"`
	Date     time.Time `bson:"date" json:"date"`
	WeightKg float64   `bson:"weight_kg" json:"weight_kg"`
}

// FeedingRecord is the initial feed provisioning assigned to an animal by its
// age bracket.
type FeedingRecord struct {
	ID              string    `bson:"_id" json:"id"`
	AnimalID        string    `bson:"animal_id" json:"animal_id"`
	Date            time.Time `bson:"date" json:"date"`
	FeedType        string    `bson:"feed_type" json:"feed_type"`
	DailyQuantityKg float64   `bson:"daily_quantity_kg" json:"daily_quantity_kg"`
}
