package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/sweep"
)

const defaultReminderHorizonDays = 30

// ReminderDirectory is the reminder access the operator UI needs.
type ReminderDirectory interface {
	Create(ctx context.Context, reminder models.Reminder) (models.Reminder, bool, error)
	ListActive(ctx context.Context, withinDays int) ([]models.Reminder, error)
	Complete(ctx context.Context, id string) (models.Reminder, error)
	Purge(ctx context.Context, id string) error
}

// ReminderHandler serves the reminder operations surfaced to the operator UI.
type ReminderHandler struct {
	store      ReminderDirectory
	dispatcher *sweep.Dispatcher
	logger     *zap.Logger
}

// NewReminderHandler constructs the HTTP handler adapter.
func NewReminderHandler(store ReminderDirectory, dispatcher *sweep.Dispatcher, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{store: store, dispatcher: dispatcher, logger: logger}
}

// List returns active reminders due within the requested horizon.
func (h *ReminderHandler) List(c *gin.Context) {
	withinDays := defaultReminderHorizonDays
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "within_days must be a non-negative integer"})
			return
		}
		withinDays = parsed
	}

	reminders, err := h.store.ListActive(c.Request.Context(), withinDays)
	if err != nil {
		h.logger.Error("failed listing reminders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reminders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// createReminderRequest is the manual reminder creation body.
type createReminderRequest struct {
	Type              models.ReminderType `json:"type" binding:"required"`
	ReferenceID       string              `json:"reference_id" binding:"required"`
	ReferenceCategory string              `json:"reference_category" binding:"required"`
	DueDate           time.Time           `json:"due_date" binding:"required"`
	Title             string              `json:"title" binding:"required"`
	Description       string              `json:"description"`
	PerformedBy       *models.Actor       `json:"performed_by"`
}

// Create registers a manual reminder. Duplicates of an active reminder on the
// same key return the existing row with a 200 instead of a 201.
func (h *ReminderHandler) Create(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reminder payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !models.KnownReminderType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reminder type"})
		return
	}

	reminder, inserted, err := h.store.Create(c.Request.Context(), models.Reminder{
		Type:              req.Type,
		ReferenceID:       req.ReferenceID,
		ReferenceCategory: req.ReferenceCategory,
		DueDate:           req.DueDate,
		Title:             req.Title,
		Description:       req.Description,
		PerformedBy:       req.PerformedBy,
	})
	if err != nil {
		h.logger.Error("failed creating reminder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reminder"})
		return
	}

	status := http.StatusCreated
	if !inserted {
		status = http.StatusOK
	}
	c.JSON(status, reminder)
}

// Complete marks a reminder done.
func (h *ReminderHandler) Complete(c *gin.Context) {
	reminder, err := h.store.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reminder not found"})
			return
		}
		h.logger.Error("failed completing reminder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete reminder"})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// Purge physically deletes a reminder. Administrative action.
func (h *ReminderHandler) Purge(c *gin.Context) {
	if err := h.store.Purge(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reminder not found"})
			return
		}
		h.logger.Error("failed purging reminder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge reminder"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RunSweep triggers one sweep pass on demand, mirroring the daily cron run.
func (h *ReminderHandler) RunSweep(c *gin.Context) {
	result, err := h.dispatcher.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("manual sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
