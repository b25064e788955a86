package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/inbox"
)

// recipientHeader carries the acting recipient id. Authentication itself is
// handled upstream; this core only scopes rows to the given recipient.
const recipientHeader = "X-Recipient-ID"

// NotificationHandler serves the per-recipient inbox.
type NotificationHandler struct {
	svc    *inbox.Service
	logger *zap.Logger
}

// NewNotificationHandler constructs the HTTP handler adapter.
func NewNotificationHandler(svc *inbox.Service, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{svc: svc, logger: logger}
}

// List returns the recipient's notifications with optional filters.
func (h *NotificationHandler) List(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	filter, page, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifications, err := h.svc.List(c.Request.Context(), recipient, filter, page)
	if err != nil {
		h.logger.Error("failed listing notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount returns the recipient's unread badge count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), recipient)
	if err != nil {
		h.logger.Error("failed counting unread notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), recipient); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("failed marking notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead flags all of the recipient's notifications as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	count, err := h.svc.MarkAllRead(c.Request.Context(), recipient)
	if err != nil {
		h.logger.Error("failed marking all notifications read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// Delete removes one notification from the recipient's inbox.
func (h *NotificationHandler) Delete(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), recipient); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("failed deleting notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAll clears the recipient's inbox.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	recipient, ok := h.recipient(c)
	if !ok {
		return
	}

	count, err := h.svc.DeleteAll(c.Request.Context(), recipient)
	if err != nil {
		h.logger.Error("failed clearing notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (h *NotificationHandler) recipient(c *gin.Context) (string, bool) {
	recipient := c.GetHeader(recipientHeader)
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": recipientHeader + " header is required"})
		return "", false
	}
	return recipient, true
}

func parseListQuery(c *gin.Context) (models.NotificationFilter, models.Page, error) {
	filter := models.NotificationFilter{
		Type:        c.Query("type"),
		Priority:    models.NotificationPriority(c.Query("priority")),
		Search:      c.Query("q"),
		PerformedBy: c.Query("performed_by"),
	}

	if raw := c.Query("unread_only"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, models.Page{}, errors.New("unread_only must be a boolean")
		}
		filter.UnreadOnly = unread
	}

	for _, bound := range []struct {
		key    string
		target **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		if raw := c.Query(bound.key); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return filter, models.Page{}, errors.New(bound.key + " must be RFC3339")
			}
			*bound.target = &parsed
		}
	}

	var page models.Page
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, page, errors.New("limit must be a non-negative integer")
		}
		page.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, page, errors.New("offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	return filter, page, nil
}
