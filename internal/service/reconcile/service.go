package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// SnapshotStore persists one snapshot per month key.
type SnapshotStore interface {
	Get(ctx context.Context, monthKey string) (models.MonthlySnapshot, error)
	Upsert(ctx context.Context, snapshot models.MonthlySnapshot) (models.MonthlySnapshot, error)
}

// AnimalDirectory is the herd read access the reconciler aggregates from.
type AnimalDirectory interface {
	CountActive(ctx context.Context) (int64, error)
	RegisteredBetween(ctx context.Context, from, to time.Time) ([]models.Animal, error)
}

// TransactionLedgers exposes the flow data for one month.
type TransactionLedgers interface {
	SalesBetween(ctx context.Context, from, to time.Time) ([]models.SaleRecord, error)
	ExpensesBetween(ctx context.Context, from, to time.Time) ([]models.ExpenseRecord, error)
	HealthEventsBetween(ctx context.Context, from, to time.Time) ([]models.HealthEvent, error)
}

// Mirror receives a best-effort copy of each reconciled snapshot. May be nil.
type Mirror interface {
	AppendSnapshot(ctx context.Context, snapshot models.MonthlySnapshot) error
}

// tolerance for the financial invariant.
var tolerance = decimal.NewFromFloat(0.01)

// Outcome is the result of one reconciliation run. ClampApplied signals a
// data anomaly: the raw closing count was negative and was clamped to zero.
// Callers should treat a clamp as a data-quality warning, not success noise.
type Outcome struct {
	Snapshot     models.MonthlySnapshot `json:"snapshot"`
	ClampApplied bool                   `json:"clamp_applied"`
	RawClosing   int                    `json:"raw_closing,omitempty"`
}

// Service computes, validates and upserts monthly snapshots.
type Service struct {
	snapshots SnapshotStore
	animals   AnimalDirectory
	ledgers   TransactionLedgers
	mirror    Mirror
	logger    *zap.Logger
}

// NewService wires a reconciliation service. mirror may be nil.
func NewService(snapshots SnapshotStore, animals AnimalDirectory, ledgers TransactionLedgers, mirror Mirror, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		snapshots: snapshots,
		animals:   animals,
		ledgers:   ledgers,
		mirror:    mirror,
		logger:    logger,
	}
}

// Reconcile computes the month's population-flow and financial totals from
// the underlying ledgers and upserts the snapshot keyed on the month.
// Re-running a month updates the same row.
func (s *Service) Reconcile(ctx context.Context, monthKey string) (Outcome, error) {
	from, to, err := MonthRange(monthKey)
	if err != nil {
		return Outcome{}, err
	}

	registrations, err := s.animals.RegisteredBetween(ctx, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("load registrations for %s: %w", monthKey, err)
	}

	var births, purchases int
	for _, animal := range registrations {
		if animal.Source == models.SourcePurchased {
			purchases++
		} else {
			births++
		}
	}

	healthEvents, err := s.ledgers.HealthEventsBetween(ctx, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("load health events for %s: %w", monthKey, err)
	}

	var deaths int
	for _, event := range healthEvents {
		if event.Outcome == models.OutcomeDeath {
			deaths++
		}
	}

	sales, err := s.ledgers.SalesBetween(ctx, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("load sales for %s: %w", monthKey, err)
	}

	var soldBreeding, soldMeat int
	totalIncome := decimal.Zero
	for _, sale := range sales {
		switch sale.Channel {
		case models.ChannelBreeding:
			soldBreeding++
		case models.ChannelMeat:
			soldMeat++
		}
		totalIncome = totalIncome.Add(sale.Amount)
	}

	expenses, err := s.ledgers.ExpensesBetween(ctx, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("load expenses for %s: %w", monthKey, err)
	}

	totalExpenses := decimal.Zero
	for _, expense := range expenses {
		totalExpenses = totalExpenses.Add(expense.Amount)
	}

	opening, err := s.openingCount(ctx, monthKey)
	if err != nil {
		return Outcome{}, err
	}

	rawClosing := opening + births + purchases - deaths - soldBreeding - soldMeat
	closing := rawClosing
	clamped := false
	if closing < 0 {
		// Negative population means the flow data is inconsistent. Store zero
		// but surface the anomaly instead of hiding it.
		s.logger.Warn("closing count clamped to zero",
			zap.String("month", monthKey),
			zap.Int("raw_closing", rawClosing))
		closing = 0
		clamped = true
	}

	snapshot := models.MonthlySnapshot{
		MonthKey:      monthKey,
		OpeningCount:  opening,
		Births:        births,
		Purchases:     purchases,
		Deaths:        deaths,
		SoldBreeding:  soldBreeding,
		SoldMeat:      soldMeat,
		ClosingCount:  closing,
		TotalExpenses: totalExpenses,
		TotalIncome:   totalIncome,
		NetProfit:     totalIncome.Sub(totalExpenses),
	}

	persisted, err := s.snapshots.Upsert(ctx, snapshot)
	if err != nil {
		return Outcome{}, fmt.Errorf("persist snapshot %s: %w", monthKey, err)
	}

	if s.mirror != nil {
		if err := s.mirror.AppendSnapshot(ctx, persisted); err != nil {
			// The mirror is an audit copy; its failure never fails the run.
			s.logger.Warn("snapshot mirror append failed", zap.String("month", monthKey), zap.Error(err))
		}
	}

	outcome := Outcome{Snapshot: persisted, ClampApplied: clamped}
	if clamped {
		outcome.RawClosing = rawClosing
	}
	return outcome, nil
}

// Validate checks a caller-supplied snapshot against the two arithmetic
// invariants and returns every violation with expected vs provided values.
// An empty result means the figures are internally consistent.
func (s *Service) Validate(candidate models.MonthlySnapshot) []models.Violation {
	var violations []models.Violation

	expectedClosing := candidate.OpeningCount + candidate.Births + candidate.Purchases -
		candidate.Deaths - candidate.SoldBreeding - candidate.SoldMeat
	if expectedClosing < 0 {
		expectedClosing = 0
	}
	if candidate.ClosingCount != expectedClosing {
		violations = append(violations, models.Violation{
			Invariant: "closing_count = max(0, opening + births + purchases - deaths - sold_breeding - sold_meat)",
			Expected:  fmt.Sprintf("%d", expectedClosing),
			Provided:  fmt.Sprintf("%d", candidate.ClosingCount),
		})
	}

	expectedProfit := candidate.TotalIncome.Sub(candidate.TotalExpenses)
	if expectedProfit.Sub(candidate.NetProfit).Abs().GreaterThan(tolerance) {
		violations = append(violations, models.Violation{
			Invariant: "net_profit = total_income - total_expenses",
			Expected:  expectedProfit.String(),
			Provided:  candidate.NetProfit.String(),
		})
	}

	return violations
}

// Save validates then upserts a caller-supplied snapshot. Any violation
// rejects the write.
func (s *Service) Save(ctx context.Context, candidate models.MonthlySnapshot) (models.MonthlySnapshot, []models.Violation, error) {
	if _, _, err := MonthRange(candidate.MonthKey); err != nil {
		return models.MonthlySnapshot{}, nil, err
	}

	if violations := s.Validate(candidate); len(violations) > 0 {
		return models.MonthlySnapshot{}, violations, nil
	}

	persisted, err := s.snapshots.Upsert(ctx, candidate)
	if err != nil {
		return models.MonthlySnapshot{}, nil, fmt.Errorf("persist snapshot %s: %w", candidate.MonthKey, err)
	}
	return persisted, nil, nil
}

// Get returns the stored snapshot for the month.
func (s *Service) Get(ctx context.Context, monthKey string) (models.MonthlySnapshot, error) {
	if _, _, err := MonthRange(monthKey); err != nil {
		return models.MonthlySnapshot{}, err
	}
	return s.snapshots.Get(ctx, monthKey)
}

// openingCount is the prior month's closing count when that month has been
// reconciled, else the current live head count as a first-month fallback.
func (s *Service) openingCount(ctx context.Context, monthKey string) (int, error) {
	prev, err := PrevMonthKey(monthKey)
	if err != nil {
		return 0, err
	}

	prior, err := s.snapshots.Get(ctx, prev)
	if err == nil {
		return prior.ClosingCount, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("load prior snapshot %s: %w", prev, err)
	}

	live, err := s.animals.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("count live animals: %w", err)
	}
	return int(live), nil
}
