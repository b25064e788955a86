package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const snapshotWriteRange = "Snapshots!A:K"

// Mirror appends reconciled monthly snapshots to the accountant spreadsheet.
type Mirror interface {
	AppendSnapshot(ctx context.Context, snapshot models.MonthlySnapshot) error
}

// GoogleSheetMirror implements Mirror using the official Google Sheets API.
type GoogleSheetMirror struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetMirror builds a Google Sheets backed mirror instance.
func NewGoogleSheetMirror(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Mirror, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetMirror{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSnapshot appends one row per reconciled month. Re-reconciling a month
// appends again; the spreadsheet is an audit trail, not the source of truth.
func (m *GoogleSheetMirror) AppendSnapshot(ctx context.Context, s models.MonthlySnapshot) error {
	values := []interface{}{
		s.MonthKey,
		s.OpeningCount,
		s.Births,
		s.Purchases,
		s.Deaths,
		s.SoldBreeding,
		s.SoldMeat,
		s.ClosingCount,
		s.TotalExpenses.String(),
		s.TotalIncome.String(),
		s.NetProfit.String(),
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := m.service.Spreadsheets.Values.Append(m.spreadsheetID, snapshotWriteRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append snapshot row for %s: %w", s.MonthKey, err)
	}

	m.logger.Debug("snapshot row appended to sheet", zap.String("month", s.MonthKey))
	return nil
}
