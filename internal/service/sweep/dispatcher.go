package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// ReminderStore is the reminder access the dispatcher needs. Create is
// deduplicating, which is what makes repeated daily runs safe.
type ReminderStore interface {
	Create(ctx context.Context, reminder models.Reminder) (models.Reminder, bool, error)
	ListActive(ctx context.Context, withinDays int) ([]models.Reminder, error)
	ListDueForNotification(ctx context.Context) ([]models.Reminder, error)
	MarkNotified(ctx context.Context, id string) error
}

// HealthLedger exposes the ongoing-condition queries behind reactive reminders.
type HealthLedger interface {
	OpenIssues(ctx context.Context) ([]models.HealthEvent, error)
}

// Broadcaster delivers a notification to every active recipient.
type Broadcaster interface {
	Broadcast(ctx context.Context, notification models.Notification) (models.BroadcastResult, error)
}

// Pusher forwards urgent notifications to an external alert channel. May be
// nil when push delivery is not configured.
type Pusher interface {
	Push(ctx context.Context, notification models.Notification) error
}

const (
	dueSoonWindowDays     = 7
	followUpIntervalDays  = 7
	notificationTTLDays   = 30
	notificationLinkStub  = "/reminders/%s"
	followUpReminderTitle = "Health follow-up due"
)

// Dispatcher is the repeatable daily batch that turns due reminders into
// notifications. It is safe under at-least-once invocation: reminder creation
// goes through the deduplicating store, and notification_sent is a one-way
// flag checked by the due query.
type Dispatcher struct {
	reminders ReminderStore
	health    HealthLedger
	inbox     Broadcaster
	pusher    Pusher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatcher wires a sweep dispatcher. pusher may be nil.
func NewDispatcher(reminders ReminderStore, health HealthLedger, inbox Broadcaster, pusher Pusher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		reminders: reminders,
		health:    health,
		inbox:     inbox,
		pusher:    pusher,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one sweep: create reactive reminders for data-driven
// conditions, then notify everything due. The dispatcher never completes
// reminders; notification and completion are independent lifecycles.
func (d *Dispatcher) Run(ctx context.Context) (models.SweepResult, error) {
	result := models.SweepResult{RemindersCreated: make(map[models.ReminderType]int)}

	d.createFollowUpReminders(ctx, &result)
	d.createDueSoonReminders(ctx, &result)

	due, err := d.reminders.ListDueForNotification(ctx)
	if err != nil {
		return result, fmt.Errorf("list due reminders: %w", err)
	}

	for _, reminder := range due {
		if err := d.notify(ctx, reminder); err != nil {
			d.logger.Warn("notification failed, reminder left for next sweep",
				zap.String("reminder_id", reminder.ID),
				zap.String("type", string(reminder.Type)),
				zap.Error(err))
			result.Failures++
			continue
		}

		if err := d.reminders.MarkNotified(ctx, reminder.ID); err != nil {
			d.logger.Error("failed to mark reminder notified",
				zap.String("reminder_id", reminder.ID),
				zap.Error(err))
			result.Failures++
			continue
		}

		result.NotificationsSent++
	}

	d.logger.Info("sweep completed",
		zap.Int("notifications_sent", result.NotificationsSent),
		zap.Int("failures", result.Failures))

	return result, nil
}

// createFollowUpReminders schedules a follow-up every seven days for each
// ongoing health issue, counted from the last treatment. Due dates stay on the
// seven-day grid anchored at the treatment date so that consecutive sweeps
// land in the same dedup bucket instead of minting a fresh reminder daily.
func (d *Dispatcher) createFollowUpReminders(ctx context.Context, result *models.SweepResult) {
	issues, err := d.health.OpenIssues(ctx)
	if err != nil {
		d.logger.Warn("skipping health follow-ups", zap.Error(err))
		result.Failures++
		return
	}

	today := startOfDay(d.now().UTC())

	for _, issue := range issues {
		anchor := issue.Date
		if issue.LastTreatmentAt != nil {
			anchor = *issue.LastTreatmentAt
		}

		due := anchor.AddDate(0, 0, followUpIntervalDays)
		for due.Before(today) {
			due = due.AddDate(0, 0, followUpIntervalDays)
		}

		_, inserted, err := d.reminders.Create(ctx, models.Reminder{
			Type:              models.ReminderHealth,
			ReferenceID:       issue.AnimalID,
			ReferenceCategory: "health-event",
			DueDate:           due,
			Title:             followUpReminderTitle,
			Description:       fmt.Sprintf("Follow up on ongoing condition: %s.", issue.Condition),
		})
		if err != nil {
			d.logger.Warn("follow-up reminder failed",
				zap.String("health_event_id", issue.ID),
				zap.Error(err))
			result.Failures++
			continue
		}
		if inserted {
			result.RemindersCreated[models.ReminderHealth]++
		}
	}
}

// createDueSoonReminders derives preparation reminders from upcoming
// vaccinations and breeding windows. These are reactive, data-driven
// reminders, distinct from the proactive age-based ones.
func (d *Dispatcher) createDueSoonReminders(ctx context.Context, result *models.SweepResult) {
	upcoming, err := d.reminders.ListActive(ctx, dueSoonWindowDays)
	if err != nil {
		d.logger.Warn("skipping due-soon reminders", zap.Error(err))
		result.Failures++
		return
	}

	today := startOfDay(d.now().UTC())

	for _, reminder := range upcoming {
		// Preparation only makes sense ahead of the obligation; anything due
		// today or earlier is already in the notification pass.
		if !reminder.DueDate.After(today) {
			continue
		}

		var prep models.Reminder

		switch reminder.Type {
		case models.ReminderVaccination:
			prep = models.Reminder{
				Type:              models.ReminderCustom,
				ReferenceID:       reminder.ReferenceID,
				ReferenceCategory: reminder.ReferenceCategory,
				DueDate:           reminder.DueDate.AddDate(0, 0, -1),
				Title:             "Vaccine stock check",
				Description:       fmt.Sprintf("Confirm vaccine stock ahead of: %s.", reminder.Title),
			}
		case models.ReminderBreeding:
			prep = models.Reminder{
				Type:              models.ReminderHealth,
				ReferenceID:       reminder.ReferenceID,
				ReferenceCategory: reminder.ReferenceCategory,
				DueDate:           reminder.DueDate,
				Title:             "Pre-breeding health check",
				Description:       "Body-condition check before the expected breeding window.",
			}
		default:
			continue
		}

		_, inserted, err := d.reminders.Create(ctx, prep)
		if err != nil {
			d.logger.Warn("due-soon reminder failed",
				zap.String("source_reminder_id", reminder.ID),
				zap.Error(err))
			result.Failures++
			continue
		}
		if inserted {
			result.RemindersCreated[prep.Type]++
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, reminder models.Reminder) error {
	notification := d.notificationFor(reminder)

	broadcast, err := d.inbox.Broadcast(ctx, notification)
	if err != nil {
		return err
	}
	// No inbox row landed, whether through failures or an empty recipient
	// set. Marking the reminder notified here would lose the notification
	// for good, so leave it for the next sweep.
	if len(broadcast.Delivered) == 0 {
		return fmt.Errorf("broadcast reached no recipients (%d failed)", broadcast.Failed)
	}

	if d.pusher != nil && notification.Priority == models.PriorityUrgent {
		if err := d.pusher.Push(ctx, notification); err != nil {
			// Push is best-effort; the inbox rows already landed.
			d.logger.Warn("urgent push failed", zap.String("reminder_id", reminder.ID), zap.Error(err))
		}
	}

	return nil
}

func (d *Dispatcher) notificationFor(reminder models.Reminder) models.Notification {
	now := d.now().UTC()
	overdue := reminder.DueDate.Before(startOfDay(now))

	var priority models.NotificationPriority
	switch reminder.Type {
	case models.ReminderVaccination:
		priority = models.PriorityHigh
	case models.ReminderHealth:
		priority = models.PriorityHigh
		if overdue {
			priority = models.PriorityUrgent
		}
	case models.ReminderGrowth:
		priority = models.PriorityLow
	default:
		priority = models.PriorityMedium
	}

	expiresAt := now.AddDate(0, 0, notificationTTLDays)

	return models.Notification{
		Type:      string(reminder.Type),
		Title:     reminder.Title,
		Message:   fmt.Sprintf("%s (due %s)", reminder.Description, reminder.DueDate.Format("2006-01-02")),
		Link:      fmt.Sprintf(notificationLinkStub, reminder.ID),
		Priority:  priority,
		ExpiresAt: &expiresAt,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
