package schedule

import "github.com/mamadbah2/herdbook/internal/domain/models"

// ScheduleRule describes one obligation template. A rule is either one-shot
// (TriggerAgeMonths set) or recurring (RecurEveryMonths set, evaluated up to
// HorizonMonths of age). An empty Sexes slice applies to all animals.
type ScheduleRule struct {
	Type             models.ReminderType
	TriggerAgeMonths int
	RecurEveryMonths int
	HorizonMonths    int
	Title            string
	Description      string
	Sexes            []models.Sex
	Categories       []models.AnimalCategory
}

// OneShot reports whether the rule fires once at a trigger age.
func (r ScheduleRule) OneShot() bool {
	return r.RecurEveryMonths == 0
}

// AppliesTo reports whether the rule covers the animal's category and sex.
func (r ScheduleRule) AppliesTo(animal models.Animal) bool {
	if len(r.Categories) > 0 && !containsCategory(r.Categories, animal.Category) {
		return false
	}
	if len(r.Sexes) > 0 && !containsSex(r.Sexes, animal.Sex) {
		return false
	}
	return true
}

// RuleTable is the versioned, immutable obligation configuration consulted by
// the generator. It is injected at construction so tests can substitute
// alternate rule sets.
type RuleTable struct {
	Version int
	Rules   []ScheduleRule
}

// DefaultRuleTable returns the production schedule for small ruminants.
func DefaultRuleTable() RuleTable {
	goatsAndSheep := []models.AnimalCategory{models.CategoryGoat, models.CategorySheep}

	return RuleTable{
		Version: 2,
		Rules: []ScheduleRule{
			{
				Type:             models.ReminderVaccination,
				TriggerAgeMonths: 2,
				Title:            "CDT vaccination due",
				Description:      "Administer the CDT (enterotoxemia/tetanus) vaccine.",
				Categories:       goatsAndSheep,
			},
			{
				Type:             models.ReminderVaccination,
				TriggerAgeMonths: 3,
				Title:            "PPR vaccination due",
				Description:      "Administer the PPR (peste des petits ruminants) vaccine.",
				Categories:       goatsAndSheep,
			},
			{
				Type:             models.ReminderDeworming,
				RecurEveryMonths: 3,
				HorizonMonths:    12,
				Title:            "Deworming due",
				Description:      "Routine broad-spectrum deworming round.",
				Categories:       goatsAndSheep,
			},
			{
				Type:             models.ReminderHealth,
				RecurEveryMonths: 6,
				HorizonMonths:    12,
				Title:            "Health checkup due",
				Description:      "General body-condition and health inspection.",
			},
			{
				Type:             models.ReminderGrowth,
				TriggerAgeMonths: 6,
				Title:            "Growth check due",
				Description:      "Weigh and record the six-month growth milestone.",
				Categories:       goatsAndSheep,
			},
		},
	}
}

func containsCategory(list []models.AnimalCategory, c models.AnimalCategory) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsSex(list []models.Sex, s models.Sex) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
