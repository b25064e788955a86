package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// ReminderStore is the subset of the reminder repository the generator needs.
// Create must be idempotent on (type, reference_id, reference_category,
// due_date) for active reminders; the bool result reports a fresh insert.
type ReminderStore interface {
	Create(ctx context.Context, reminder models.Reminder) (models.Reminder, bool, error)
}

// HusbandryStore persists the growth and feeding rows seeded at registration.
type HusbandryStore interface {
	CreateGrowthRecord(ctx context.Context, record models.GrowthRecord) error
	CreateFeedingRecord(ctx context.Context, record models.FeedingRecord) error
}

// Inbox delivers the bootstrap summary notification.
type Inbox interface {
	Create(ctx context.Context, notification models.Notification) (models.Notification, error)
}

const weaningHorizonMonths = 4

// Generator derives future obligations from an animal's age against the rule
// table and runs the registration bootstrap.
type Generator struct {
	rules     RuleTable
	reminders ReminderStore
	husbandry HusbandryStore
	inbox     Inbox
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerator wires a schedule generator with the injected rule table.
func NewGenerator(rules RuleTable, reminders ReminderStore, husbandry HusbandryStore, inbox Inbox, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		rules:     rules,
		reminders: reminders,
		husbandry: husbandry,
		inbox:     inbox,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate evaluates every applicable rule and persists the resulting
// reminders. Candidates whose due date is not strictly in the future are
// discarded: a reminder for an obligation already past due at registration
// time is noise, not an alert. A failure on one rule is logged and skipped
// without aborting the remaining rules.
func (g *Generator) Generate(ctx context.Context, animal models.Animal) ([]models.Reminder, error) {
	if animal.ID == "" || animal.BirthDate.IsZero() {
		return nil, fmt.Errorf("%w: animal id and birth date are required", models.ErrInvalidInput)
	}

	now := g.now().UTC()
	var created []models.Reminder

	for _, rule := range g.rules.Rules {
		if !rule.AppliesTo(animal) {
			continue
		}

		for _, due := range g.dueDates(rule, animal, now) {
			reminder := models.Reminder{
				Type:              rule.Type,
				ReferenceID:       animal.ID,
				ReferenceCategory: string(animal.Category),
				DueDate:           due,
				Title:             rule.Title,
				Description:       rule.Description,
			}

			persisted, inserted, err := g.reminders.Create(ctx, reminder)
			if err != nil {
				g.logger.Warn("skipping rule after store failure",
					zap.String("animal_id", animal.ID),
					zap.String("type", string(rule.Type)),
					zap.Time("due_date", due),
					zap.Error(err))
				continue
			}
			if inserted {
				created = append(created, persisted)
			}
		}
	}

	return created, nil
}

// dueDates computes the candidate due dates a rule yields for the animal.
// One-shot rules fire once at the trigger age; recurring rules fire at every
// future multiple of the interval up to the horizon.
func (g *Generator) dueDates(rule ScheduleRule, animal models.Animal, now time.Time) []time.Time {
	if rule.OneShot() {
		if animal.AgeInMonths(now) >= rule.TriggerAgeMonths {
			return nil
		}
		due := animal.BirthDate.AddDate(0, rule.TriggerAgeMonths, 0)
		if !due.After(now) {
			return nil
		}
		return []time.Time{due}
	}

	// A negative interval would never advance past the horizon.
	if rule.RecurEveryMonths < 0 {
		return nil
	}

	var dues []time.Time
	for m := rule.RecurEveryMonths; m <= rule.HorizonMonths; m += rule.RecurEveryMonths {
		due := animal.BirthDate.AddDate(0, m, 0)
		if due.After(now) {
			dues = append(dues, due)
		}
	}
	return dues
}

// Bootstrap runs the registration side effects as a sequential task list with
// per-task error capture. Each task commits or is logged and skipped; a
// failure never aborts the siblings, so the aggregate result reflects exactly
// which steps landed.
func (g *Generator) Bootstrap(ctx context.Context, animal models.Animal, actor *models.Actor) models.BootstrapResult {
	var createdReminders int

	tasks := []struct {
		name string
		run  func(context.Context) error
	}{
		{"schedule-reminders", func(ctx context.Context) error {
			reminders, err := g.Generate(ctx, animal)
			createdReminders = len(reminders)
			return err
		}},
		{"growth-bootstrap", func(ctx context.Context) error {
			return g.bootstrapGrowth(ctx, animal)
		}},
		{"breeding-readiness", func(ctx context.Context) error {
			return g.bootstrapBreeding(ctx, animal)
		}},
		{"feeding-provision", func(ctx context.Context) error {
			return g.provisionFeeding(ctx, animal)
		}},
		{"summary-notification", func(ctx context.Context) error {
			return g.notifySummary(ctx, animal, actor, createdReminders)
		}},
	}

	result := models.BootstrapResult{}
	for _, task := range tasks {
		err := task.run(ctx)
		if err != nil {
			g.logger.Warn("bootstrap task failed",
				zap.String("animal_id", animal.ID),
				zap.String("task", task.name),
				zap.Error(err))
		}
		result.Tasks = append(result.Tasks, models.TaskResult{Name: task.name, Err: err})
	}

	return result
}

// bootstrapGrowth seeds the growth trail for animals under a year old: an
// initial observation at the current weight, weekly check reminders through
// the first four weeks for neonates, and monthly checks until weaning.
func (g *Generator) bootstrapGrowth(ctx context.Context, animal models.Animal) error {
	now := g.now().UTC()
	if animal.AgeInMonths(now) >= 12 {
		return nil
	}

	if err := g.husbandry.CreateGrowthRecord(ctx, models.GrowthRecord{
		AnimalID: animal.ID,
		Date:     now,
		WeightKg: animal.WeightKg,
	}); err != nil {
		return err
	}

	var dues []time.Time
	if animal.AgeInDays(now) < 30 {
		for week := 1; week <= 4; week++ {
			dues = append(dues, animal.BirthDate.AddDate(0, 0, 7*week))
		}
	}
	for month := 1; month <= weaningHorizonMonths; month++ {
		dues = append(dues, animal.BirthDate.AddDate(0, month, 0))
	}

	for _, due := range dues {
		if !due.After(now) {
			continue
		}
		_, _, err := g.reminders.Create(ctx, models.Reminder{
			Type:              models.ReminderGrowth,
			ReferenceID:       animal.ID,
			ReferenceCategory: string(animal.Category),
			DueDate:           due,
			Title:             "Growth check due",
			Description:       fmt.Sprintf("Weigh animal %s and record the measurement.", animal.Tag),
		})
		if err != nil {
			g.logger.Warn("skipping growth reminder",
				zap.String("animal_id", animal.ID),
				zap.Time("due_date", due),
				zap.Error(err))
		}
	}

	return nil
}

// bootstrapBreeding creates exactly one breeding-readiness reminder for
// animals registered between 7 and 9 months of age, at the sex-dependent
// optimal age (9 months for females, 8 for males), future dates only.
func (g *Generator) bootstrapBreeding(ctx context.Context, animal models.Animal) error {
	now := g.now().UTC()
	age := animal.AgeInMonths(now)
	if age < 7 || age > 9 {
		return nil
	}

	optimal := 9
	if animal.Sex == models.SexMale {
		optimal = 8
	}

	due := animal.BirthDate.AddDate(0, optimal, 0)
	if !due.After(now) {
		return nil
	}

	_, _, err := g.reminders.Create(ctx, models.Reminder{
		Type:              models.ReminderBreeding,
		ReferenceID:       animal.ID,
		ReferenceCategory: string(animal.Category),
		DueDate:           due,
		Title:             "Breeding readiness check",
		Description:       fmt.Sprintf("Animal %s reaches optimal breeding age at %d months.", animal.Tag, optimal),
	})
	return err
}

type feedBracket struct {
	maxAgeMonths    int
	feedType        string
	dailyQuantityKg float64
}

// Brackets run neonate to adult; the last entry is the open-ended fallback.
var feedBrackets = []feedBracket{
	{maxAgeMonths: 3, feedType: "starter mash", dailyQuantityKg: 0.25},
	{maxAgeMonths: 8, feedType: "grower ration", dailyQuantityKg: 0.75},
	{maxAgeMonths: 18, feedType: "yearling ration", dailyQuantityKg: 1.5},
	{maxAgeMonths: 0, feedType: "adult maintenance", dailyQuantityKg: 2.0},
}

// provisionFeeding assigns the initial feed ration by age bracket. This is
// independent of the reminder mechanism.
func (g *Generator) provisionFeeding(ctx context.Context, animal models.Animal) error {
	age := animal.AgeInMonths(g.now().UTC())

	bracket := feedBrackets[len(feedBrackets)-1]
	for _, b := range feedBrackets[:len(feedBrackets)-1] {
		if age < b.maxAgeMonths {
			bracket = b
			break
		}
	}

	return g.husbandry.CreateFeedingRecord(ctx, models.FeedingRecord{
		AnimalID:        animal.ID,
		Date:            g.now().UTC(),
		FeedType:        bracket.feedType,
		DailyQuantityKg: bracket.dailyQuantityKg,
	})
}

func (g *Generator) notifySummary(ctx context.Context, animal models.Animal, actor *models.Actor, reminderCount int) error {
	if actor == nil || actor.ID == "" {
		return nil
	}

	_, err := g.inbox.Create(ctx, models.Notification{
		Recipient:   actor.ID,
		Type:        "registration",
		Title:       "Schedule generated",
		Message:     fmt.Sprintf("%d reminders scheduled for animal %s.", reminderCount, animal.Tag),
		Priority:    models.PriorityLow,
		Link:        fmt.Sprintf("/animals/%s", animal.ID),
		PerformedBy: actor,
	})
	return err
}
