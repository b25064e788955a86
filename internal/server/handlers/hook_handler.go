package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/schedule"
)

const bootstrapTimeout = 30 * time.Second

// HookHandler ingests entity-lifecycle callbacks from the surrounding CRUD
// layer.
type HookHandler struct {
	generator *schedule.Generator
	logger    *zap.Logger
}

// NewHookHandler constructs the HTTP handler adapter.
func NewHookHandler(generator *schedule.Generator, logger *zap.Logger) *HookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HookHandler{generator: generator, logger: logger}
}

// animalCreatedRequest is the callback body for a newly registered animal.
type animalCreatedRequest struct {
	Animal models.Animal `json:"animal" binding:"required"`
	Actor  *models.Actor `json:"actor"`
}

// AnimalCreated fires the registration bootstrap. The caller gets a 202
// immediately; the bootstrap runs detached, so reminders may materialize
// shortly after the response (eventual, not immediate, consistency).
func (h *HookHandler) AnimalCreated(c *gin.Context) {
	var req animalCreatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid animal-created payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if req.Animal.ID == "" || req.Animal.BirthDate.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "animal id and birth_date are required"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()

		result := h.generator.Bootstrap(ctx, req.Animal, req.Actor)
		if failed := result.Failed(); len(failed) > 0 {
			h.logger.Warn("bootstrap finished with failed tasks",
				zap.String("animal_id", req.Animal.ID),
				zap.Int("failed_tasks", len(failed)))
		}
	}()

	c.Status(http.StatusAccepted)
}
