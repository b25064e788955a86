package sweep

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeReminderStore struct {
	reminders map[string]*models.Reminder
	seq       int
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{reminders: make(map[string]*models.Reminder)}
}

func (s *fakeReminderStore) add(r models.Reminder) *models.Reminder {
	s.seq++
	r.ID = fmt.Sprintf("rem-%d", s.seq)
	s.reminders[r.ID] = &r
	return &r
}

func (s *fakeReminderStore) dedupKey(r models.Reminder) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Type, r.ReferenceID, r.ReferenceCategory, r.DueDate.Format("2006-01-02"))
}

func (s *fakeReminderStore) Create(_ context.Context, r models.Reminder) (models.Reminder, bool, error) {
	for _, existing := range s.reminders {
		if !existing.IsCompleted && s.dedupKey(*existing) == s.dedupKey(r) {
			return *existing, false, nil
		}
	}
	return *s.add(r), true, nil
}

func (s *fakeReminderStore) ListActive(_ context.Context, withinDays int) ([]models.Reminder, error) {
	horizon := testNow.AddDate(0, 0, withinDays)
	var out []models.Reminder
	for _, r := range s.reminders {
		if !r.IsCompleted && !r.DueDate.After(horizon) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) ListDueForNotification(_ context.Context) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, r := range s.reminders {
		if !r.IsCompleted && !r.NotificationSent && !r.DueDate.After(testNow) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) MarkNotified(_ context.Context, id string) error {
	r, ok := s.reminders[id]
	if !ok {
		return models.ErrNotFound
	}
	r.NotificationSent = true
	return nil
}

type fakeHealthLedger struct {
	issues []models.HealthEvent
}

func (l *fakeHealthLedger) OpenIssues(_ context.Context) ([]models.HealthEvent, error) {
	return l.issues, nil
}

type fakeBroadcaster struct {
	sent         []models.Notification
	failTitle    string
	noRecipients bool
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, n models.Notification) (models.BroadcastResult, error) {
	if b.failTitle != "" && n.Title == b.failTitle {
		return models.BroadcastResult{}, errors.New("inbox unavailable")
	}
	if b.noRecipients {
		return models.BroadcastResult{}, nil
	}
	b.sent = append(b.sent, n)
	return models.BroadcastResult{Delivered: []models.Notification{n}}, nil
}

type fakePusher struct {
	pushed []models.Notification
}

func (p *fakePusher) Push(_ context.Context, n models.Notification) error {
	p.pushed = append(p.pushed, n)
	return nil
}

func newTestDispatcher(store *fakeReminderStore, health *fakeHealthLedger, inbox *fakeBroadcaster, pusher Pusher) *Dispatcher {
	d := NewDispatcher(store, health, inbox, pusher, nil)
	d.now = func() time.Time { return testNow }
	return d
}

func dueReminder(t models.ReminderType, title string, dueDaysFromNow int) models.Reminder {
	return models.Reminder{
		Type:              t,
		ReferenceID:       "goat-1",
		ReferenceCategory: "goat",
		DueDate:           testNow.AddDate(0, 0, dueDaysFromNow).Truncate(24 * time.Hour),
		Title:             title,
		Description:       "test obligation",
	}
}

func TestRunNotifiesDueRemindersOnce(t *testing.T) {
	store := newFakeReminderStore()
	store.add(dueReminder(models.ReminderVaccination, "PPR vaccination due", 0))
	store.add(dueReminder(models.ReminderDeworming, "Deworming due", -2))
	store.add(dueReminder(models.ReminderGrowth, "Growth check due", 10))

	inbox := &fakeBroadcaster{}
	d := newTestDispatcher(store, &fakeHealthLedger{}, inbox, nil)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.NotificationsSent)
	assert.Zero(t, result.Failures)
	assert.Len(t, inbox.sent, 2)
}

func TestRunIsIdempotentAcrossRepeatedInvocations(t *testing.T) {
	store := newFakeReminderStore()
	store.add(dueReminder(models.ReminderVaccination, "PPR vaccination due", 0))

	inbox := &fakeBroadcaster{}
	d := newTestDispatcher(store, &fakeHealthLedger{}, inbox, nil)

	first, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.NotificationsSent)

	second, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, second.NotificationsSent, "notification_sent is a one-way flag")
	assert.Len(t, inbox.sent, 1)
}

func TestRunFailedNotificationIsRetriedNextSweep(t *testing.T) {
	store := newFakeReminderStore()
	store.add(dueReminder(models.ReminderVaccination, "PPR vaccination due", 0))
	store.add(dueReminder(models.ReminderDeworming, "Deworming due", 0))

	inbox := &fakeBroadcaster{failTitle: "PPR vaccination due"}
	d := newTestDispatcher(store, &fakeHealthLedger{}, inbox, nil)

	first, err := d.Run(context.Background())
	require.NoError(t, err)

	// One item failed but its sibling still went out.
	assert.Equal(t, 1, first.NotificationsSent)
	assert.Equal(t, 1, first.Failures)

	inbox.failTitle = ""
	second, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.NotificationsSent, "failed reminder picked up on next sweep")
}

func TestRunCreatesHealthFollowUps(t *testing.T) {
	lastTreatment := testNow.AddDate(0, 0, -10)
	health := &fakeHealthLedger{issues: []models.HealthEvent{{
		ID:              "evt-1",
		AnimalID:        "goat-2",
		Date:            testNow.AddDate(0, 0, -20),
		Condition:       "foot rot",
		Outcome:         models.OutcomeOngoing,
		LastTreatmentAt: &lastTreatment,
	}}}

	store := newFakeReminderStore()
	d := newTestDispatcher(store, health, &fakeBroadcaster{}, nil)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.RemindersCreated[models.ReminderHealth])

	// Re-running the same day must not create a second follow-up.
	again, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.RemindersCreated[models.ReminderHealth])
}

func TestRunFollowUpCadenceHoldsAcrossDailySweeps(t *testing.T) {
	lastTreatment := testNow.AddDate(0, 0, -10)
	health := &fakeHealthLedger{issues: []models.HealthEvent{{
		ID:              "evt-1",
		AnimalID:        "goat-2",
		Date:            testNow.AddDate(0, 0, -20),
		Condition:       "foot rot",
		Outcome:         models.OutcomeOngoing,
		LastTreatmentAt: &lastTreatment,
	}}}

	store := newFakeReminderStore()
	d := newTestDispatcher(store, health, &fakeBroadcaster{}, nil)

	first, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.RemindersCreated[models.ReminderHealth])

	// The next day's sweep must land on the same seven-day grid slot, not
	// mint a second follow-up for the same untreated issue.
	d.now = func() time.Time { return testNow.AddDate(0, 0, 1) }

	second, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.RemindersCreated[models.ReminderHealth])

	var followUps int
	for _, r := range store.reminders {
		if r.Type == models.ReminderHealth {
			followUps++
		}
	}
	assert.Equal(t, 1, followUps)
}

func TestRunEmptyBroadcastLeavesReminderForNextSweep(t *testing.T) {
	store := newFakeReminderStore()
	store.add(dueReminder(models.ReminderVaccination, "PPR vaccination due", 0))

	inbox := &fakeBroadcaster{noRecipients: true}
	d := newTestDispatcher(store, &fakeHealthLedger{}, inbox, nil)

	first, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, first.NotificationsSent)
	assert.Equal(t, 1, first.Failures)

	// Once recipients exist again, the reminder is still eligible.
	inbox.noRecipients = false
	second, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, second.NotificationsSent)
	assert.Len(t, inbox.sent, 1)
}

func TestRunCreatesVaccinePrepReminders(t *testing.T) {
	store := newFakeReminderStore()
	store.add(dueReminder(models.ReminderVaccination, "PPR vaccination due", 5))

	d := newTestDispatcher(store, &fakeHealthLedger{}, &fakeBroadcaster{}, nil)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.RemindersCreated[models.ReminderCustom])
}

func TestRunPushesUrgentNotifications(t *testing.T) {
	store := newFakeReminderStore()
	// Overdue health reminders escalate to urgent.
	store.add(dueReminder(models.ReminderHealth, "Health follow-up due", -3))

	pusher := &fakePusher{}
	d := newTestDispatcher(store, &fakeHealthLedger{}, &fakeBroadcaster{}, pusher)

	_, err := d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, models.PriorityUrgent, pusher.pushed[0].Priority)
}
