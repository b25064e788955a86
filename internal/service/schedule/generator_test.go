package schedule

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

type fakeReminderStore struct {
	reminders []models.Reminder
	failTypes map[models.ReminderType]bool
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{failTypes: make(map[models.ReminderType]bool)}
}

func (s *fakeReminderStore) key(r models.Reminder) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Type, r.ReferenceID, r.ReferenceCategory, r.DueDate.Format("2006-01-02"))
}

func (s *fakeReminderStore) Create(_ context.Context, r models.Reminder) (models.Reminder, bool, error) {
	if s.failTypes[r.Type] {
		return models.Reminder{}, false, errors.New("store unavailable")
	}
	for _, existing := range s.reminders {
		if !existing.IsCompleted && s.key(existing) == s.key(r) {
			return existing, false, nil
		}
	}
	r.ID = fmt.Sprintf("rem-%d", len(s.reminders)+1)
	s.reminders = append(s.reminders, r)
	return r, true, nil
}

func (s *fakeReminderStore) ofType(t models.ReminderType) []models.Reminder {
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

type fakeHusbandryStore struct {
	growth      []models.GrowthRecord
	feeding     []models.FeedingRecord
	failFeeding bool
}

func (s *fakeHusbandryStore) CreateGrowthRecord(_ context.Context, r models.GrowthRecord) error {
	s.growth = append(s.growth, r)
	return nil
}

func (s *fakeHusbandryStore) CreateFeedingRecord(_ context.Context, r models.FeedingRecord) error {
	if s.failFeeding {
		return errors.New("feeding store unavailable")
	}
	s.feeding = append(s.feeding, r)
	return nil
}

type fakeInbox struct {
	notifications []models.Notification
}

func (s *fakeInbox) Create(_ context.Context, n models.Notification) (models.Notification, error) {
	n.ID = fmt.Sprintf("notif-%d", len(s.notifications)+1)
	s.notifications = append(s.notifications, n)
	return n, nil
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestGenerator(rules RuleTable, store *fakeReminderStore, husbandry *fakeHusbandryStore, inbox *fakeInbox) *Generator {
	g := NewGenerator(rules, store, husbandry, inbox, nil)
	g.now = func() time.Time { return testNow }
	return g
}

func goatBornDaysAgo(days int) models.Animal {
	return models.Animal{
		ID:        "goat-1",
		Tag:       "G-001",
		Category:  models.CategoryGoat,
		Sex:       models.SexFemale,
		BirthDate: testNow.AddDate(0, 0, -days),
		Status:    models.StatusActive,
		WeightKg:  12,
	}
}

func goatBornMonthsAgo(months int) models.Animal {
	animal := goatBornDaysAgo(0)
	animal.BirthDate = testNow.AddDate(0, -months, 0)
	return animal
}

func TestGenerateSkipsObligationsAlreadyPastDue(t *testing.T) {
	rules := RuleTable{Rules: []ScheduleRule{
		{Type: models.ReminderVaccination, TriggerAgeMonths: 3, Title: "PPR vaccination due"},
		{Type: models.ReminderDeworming, TriggerAgeMonths: 1, Title: "Deworming due"},
	}}
	store := newFakeReminderStore()
	g := newTestGenerator(rules, store, &fakeHusbandryStore{}, &fakeInbox{})

	// Born 60 days ago: the 3-month trigger is still ahead, the 1-month one
	// has already passed and must not produce a back-dated reminder.
	animal := goatBornDaysAgo(60)

	created, err := g.Generate(context.Background(), animal)
	require.NoError(t, err)
	require.Len(t, created, 1)

	assert.Equal(t, models.ReminderVaccination, created[0].Type)
	assert.Equal(t, animal.BirthDate.AddDate(0, 3, 0), created[0].DueDate)
	assert.Empty(t, store.ofType(models.ReminderDeworming))
}

func TestGenerateIsIdempotent(t *testing.T) {
	store := newFakeReminderStore()
	g := newTestGenerator(DefaultRuleTable(), store, &fakeHusbandryStore{}, &fakeInbox{})
	animal := goatBornDaysAgo(60)

	first, err := g.Generate(context.Background(), animal)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := g.Generate(context.Background(), animal)
	require.NoError(t, err)

	assert.Empty(t, second, "second run must not insert duplicates")
	assert.Len(t, store.reminders, len(first))
}

func TestGenerateRecurringEmitsFutureMultiplesOnly(t *testing.T) {
	rules := RuleTable{Rules: []ScheduleRule{
		{Type: models.ReminderDeworming, RecurEveryMonths: 3, HorizonMonths: 12, Title: "Deworming due"},
	}}
	store := newFakeReminderStore()
	g := newTestGenerator(rules, store, &fakeHusbandryStore{}, &fakeInbox{})

	// Four months old: the month-3 round is past, months 6, 9 and 12 remain.
	animal := goatBornMonthsAgo(4)

	created, err := g.Generate(context.Background(), animal)
	require.NoError(t, err)
	require.Len(t, created, 3)

	for i, months := range []int{6, 9, 12} {
		assert.Equal(t, animal.BirthDate.AddDate(0, months, 0), created[i].DueDate)
	}
}

func TestGenerateIgnoresNegativeRecurrenceInterval(t *testing.T) {
	rules := RuleTable{Rules: []ScheduleRule{
		{Type: models.ReminderDeworming, RecurEveryMonths: -3, HorizonMonths: 12, Title: "Deworming due"},
	}}
	store := newFakeReminderStore()
	g := newTestGenerator(rules, store, &fakeHusbandryStore{}, &fakeInbox{})

	created, err := g.Generate(context.Background(), goatBornDaysAgo(30))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestGenerateRespectsCategoryFilter(t *testing.T) {
	rules := RuleTable{Rules: []ScheduleRule{
		{Type: models.ReminderVaccination, TriggerAgeMonths: 3, Title: "PPR vaccination due",
			Categories: []models.AnimalCategory{models.CategoryGoat}},
	}}
	store := newFakeReminderStore()
	g := newTestGenerator(rules, store, &fakeHusbandryStore{}, &fakeInbox{})

	animal := goatBornDaysAgo(30)
	animal.Category = models.CategoryCattle

	created, err := g.Generate(context.Background(), animal)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestGenerateStoreFailureDoesNotAbortRemainingRules(t *testing.T) {
	rules := RuleTable{Rules: []ScheduleRule{
		{Type: models.ReminderVaccination, TriggerAgeMonths: 3, Title: "PPR vaccination due"},
		{Type: models.ReminderHealth, TriggerAgeMonths: 6, Title: "Health checkup due"},
	}}
	store := newFakeReminderStore()
	store.failTypes[models.ReminderVaccination] = true
	g := newTestGenerator(rules, store, &fakeHusbandryStore{}, &fakeInbox{})

	created, err := g.Generate(context.Background(), goatBornDaysAgo(30))
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, models.ReminderHealth, created[0].Type)
}

func TestGenerateRejectsAnimalWithoutBirthDate(t *testing.T) {
	g := newTestGenerator(DefaultRuleTable(), newFakeReminderStore(), &fakeHusbandryStore{}, &fakeInbox{})

	_, err := g.Generate(context.Background(), models.Animal{ID: "goat-1"})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestBootstrapBreedingReadiness(t *testing.T) {
	cases := []struct {
		name        string
		ageMonths   int
		sex         models.Sex
		wantMonths  int
		wantCreated bool
	}{
		{"female in window", 8, models.SexFemale, 9, true},
		{"male in window", 7, models.SexMale, 8, true},
		{"too young", 5, models.SexFemale, 0, false},
		{"too old", 10, models.SexFemale, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeReminderStore()
			g := newTestGenerator(RuleTable{}, store, &fakeHusbandryStore{}, &fakeInbox{})

			animal := goatBornMonthsAgo(tc.ageMonths)
			animal.Sex = tc.sex

			result := g.Bootstrap(context.Background(), animal, nil)
			require.Empty(t, result.Failed())

			breeding := store.ofType(models.ReminderBreeding)
			if !tc.wantCreated {
				assert.Empty(t, breeding)
				return
			}
			require.Len(t, breeding, 1)
			assert.Equal(t, animal.BirthDate.AddDate(0, tc.wantMonths, 0), breeding[0].DueDate)
		})
	}
}

func TestBootstrapGrowthForNeonate(t *testing.T) {
	store := newFakeReminderStore()
	husbandry := &fakeHusbandryStore{}
	g := newTestGenerator(RuleTable{}, store, husbandry, &fakeInbox{})

	// Ten days old: week-1 check is already past; weeks 2-4 plus the four
	// monthly checks up to weaning remain.
	animal := goatBornDaysAgo(10)

	result := g.Bootstrap(context.Background(), animal, nil)
	require.Empty(t, result.Failed())

	require.Len(t, husbandry.growth, 1)
	assert.Equal(t, animal.WeightKg, husbandry.growth[0].WeightKg)

	assert.Len(t, store.ofType(models.ReminderGrowth), 7)
}

func TestBootstrapSkipsGrowthForAdults(t *testing.T) {
	store := newFakeReminderStore()
	husbandry := &fakeHusbandryStore{}
	g := newTestGenerator(RuleTable{}, store, husbandry, &fakeInbox{})

	result := g.Bootstrap(context.Background(), goatBornMonthsAgo(24), nil)
	require.Empty(t, result.Failed())

	assert.Empty(t, husbandry.growth)
	assert.Empty(t, store.ofType(models.ReminderGrowth))
}

func TestBootstrapFeedingBrackets(t *testing.T) {
	cases := []struct {
		ageMonths    int
		wantFeedType string
		wantDailyKg  float64
	}{
		{1, "starter mash", 0.25},
		{5, "grower ration", 0.75},
		{12, "yearling ration", 1.5},
		{30, "adult maintenance", 2.0},
	}

	for _, tc := range cases {
		t.Run(tc.wantFeedType, func(t *testing.T) {
			husbandry := &fakeHusbandryStore{}
			g := newTestGenerator(RuleTable{}, newFakeReminderStore(), husbandry, &fakeInbox{})

			result := g.Bootstrap(context.Background(), goatBornMonthsAgo(tc.ageMonths), nil)
			require.Empty(t, result.Failed())

			require.Len(t, husbandry.feeding, 1)
			assert.Equal(t, tc.wantFeedType, husbandry.feeding[0].FeedType)
			assert.Equal(t, tc.wantDailyKg, husbandry.feeding[0].DailyQuantityKg)
		})
	}
}

func TestBootstrapTaskFailureDoesNotAbortSiblings(t *testing.T) {
	store := newFakeReminderStore()
	husbandry := &fakeHusbandryStore{failFeeding: true}
	inbox := &fakeInbox{}
	g := newTestGenerator(DefaultRuleTable(), store, husbandry, inbox)

	actor := &models.Actor{ID: "user-1", DisplayName: "Awa"}
	result := g.Bootstrap(context.Background(), goatBornDaysAgo(60), actor)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "feeding-provision", failed[0].Name)

	// Siblings still ran: reminders were generated and the summary landed.
	assert.NotEmpty(t, store.reminders)
	require.Len(t, inbox.notifications, 1)
	assert.Equal(t, "user-1", inbox.notifications[0].Recipient)
}

func TestBootstrapSummarySkippedWithoutActor(t *testing.T) {
	inbox := &fakeInbox{}
	g := newTestGenerator(RuleTable{}, newFakeReminderStore(), &fakeHusbandryStore{}, inbox)

	result := g.Bootstrap(context.Background(), goatBornMonthsAgo(24), nil)
	require.Empty(t, result.Failed())
	assert.Empty(t, inbox.notifications)
}
