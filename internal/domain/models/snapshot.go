package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySnapshot holds one month's reconciled population-flow and financial
// totals. Exactly one snapshot exists per MonthKey; reconciliation upserts.
//
// Invariants enforced by the reconciler:
//
//	ClosingCount = OpeningCount + Births + Purchases - Deaths - SoldBreeding - SoldMeat
//	NetProfit    = TotalIncome - TotalExpenses (within 0.01)
type MonthlySnapshot struct {
	MonthKey      string          `json:"month_key"`
	OpeningCount  int             `json:"opening_count"`
	Births        int             `json:"births"`
	Purchases     int             `json:"purchases"`
	Deaths        int             `json:"deaths"`
	SoldBreeding  int             `json:"sold_breeding"`
	SoldMeat      int             `json:"sold_meat"`
	ClosingCount  int             `json:"closing_count"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Violation describes one failed snapshot invariant, with the expected value
// computed from the other fields against the value the caller provided.
type Violation struct {
	Invariant string `json:"invariant"`
	Expected  string `json:"expected"`
	Provided  string `json:"provided"`
}
