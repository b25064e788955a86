package inbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// NotificationStore is the persistence contract the inbox builds on. All
// mutations are recipient-scoped; a mismatch yields models.ErrNotFound.
type NotificationStore interface {
	Insert(ctx context.Context, notification models.Notification) (models.Notification, error)
	List(ctx context.Context, recipient string, filter models.NotificationFilter, page models.Page) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, id, recipient string) error
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	Delete(ctx context.Context, id, recipient string) error
	DeleteAll(ctx context.Context, recipient string) (int64, error)
}

// RecipientDirectory lists the users eligible for broadcast fan-out.
type RecipientDirectory interface {
	ListActiveRecipients(ctx context.Context) ([]string, error)
}

// Service is the per-recipient notification inbox.
type Service struct {
	store      NotificationStore
	recipients RecipientDirectory
	logger     *zap.Logger
}

// NewService wires a new inbox service instance.
func NewService(store NotificationStore, recipients RecipientDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		recipients: recipients,
		logger:     logger,
	}
}

// Create delivers one notification to a single recipient.
func (s *Service) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.Recipient == "" {
		return models.Notification{}, fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	if n.Title == "" {
		return models.Notification{}, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}

	return s.store.Insert(ctx, n)
}

// Broadcast fans the notification out to every active recipient as an
// independent row with its own read state. Fan-out is not atomic: a failed
// recipient is logged and counted, and delivery continues for the rest.
func (s *Service) Broadcast(ctx context.Context, n models.Notification) (models.BroadcastResult, error) {
	if n.Title == "" {
		return models.BroadcastResult{}, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}

	recipients, err := s.recipients.ListActiveRecipients(ctx)
	if err != nil {
		return models.BroadcastResult{}, fmt.Errorf("resolve broadcast recipients: %w", err)
	}

	var result models.BroadcastResult
	for _, recipient := range recipients {
		row := n
		row.ID = ""
		row.Recipient = recipient

		delivered, err := s.Create(ctx, row)
		if err != nil {
			s.logger.Warn("broadcast delivery failed",
				zap.String("recipient", recipient),
				zap.String("title", n.Title),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Delivered = append(result.Delivered, delivered)
	}

	return result, nil
}

// List returns the recipient's notifications newest first, expired excluded.
func (s *Service) List(ctx context.Context, recipient string, filter models.NotificationFilter, page models.Page) ([]models.Notification, error) {
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.List(ctx, recipient, filter, page)
}

// UnreadCount returns the recipient's unread badge count.
func (s *Service) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.UnreadCount(ctx, recipient)
}

// MarkRead flags one of the recipient's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.MarkRead(ctx, id, recipient)
}

// MarkAllRead flags all of the recipient's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.MarkAllRead(ctx, recipient)
}

// Delete removes one of the recipient's notifications.
func (s *Service) Delete(ctx context.Context, id, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.Delete(ctx, id, recipient)
}

// DeleteAll clears the recipient's inbox and returns the removed count.
func (s *Service) DeleteAll(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, fmt.Errorf("%w: recipient is required", models.ErrInvalidInput)
	}
	return s.store.DeleteAll(ctx, recipient)
}
