package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/reconcile"
)

// SnapshotHandler serves monthly reconciliation and snapshot edits.
type SnapshotHandler struct {
	svc    *reconcile.Service
	logger *zap.Logger
}

// NewSnapshotHandler constructs the HTTP handler adapter.
func NewSnapshotHandler(svc *reconcile.Service, logger *zap.Logger) *SnapshotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotHandler{svc: svc, logger: logger}
}

// Reconcile recomputes the month from the ledgers and upserts its snapshot.
func (h *SnapshotHandler) Reconcile(c *gin.Context) {
	outcome, err := h.svc.Reconcile(c.Request.Context(), c.Param("month"))
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("reconciliation failed", zap.String("month", c.Param("month")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Get returns the stored snapshot for a month.
func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshot, err := h.svc.Get(c.Request.Context(), c.Param("month"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		default:
			h.logger.Error("failed loading snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		}
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// snapshotRequest is the caller-supplied snapshot edit body.
type snapshotRequest struct {
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
}

// Save validates a hand-edited snapshot and writes it only when both
// invariants hold; violations come back as a 422 with expected vs provided.
func (h *SnapshotHandler) Save(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid snapshot payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	candidate := models.MonthlySnapshot{
		MonthKey:      c.Param("month"),
		OpeningCount:  req.OpeningCount,
		Births:        req.Births,
		Purchases:     req.Purchases,
		Deaths:        req.Deaths,
		SoldBreeding:  req.SoldBreeding,
		SoldMeat:      req.SoldMeat,
		ClosingCount:  req.ClosingCount,
		TotalExpenses: req.TotalExpenses,
		TotalIncome:   req.TotalIncome,
		NetProfit:     req.NetProfit,
	}

	persisted, violations, err := h.svc.Save(c.Request.Context(), candidate)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed saving snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save snapshot"})
		return
	}
	if len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"violations": violations})
		return
	}

	c.JSON(http.StatusOK, persisted)
}
