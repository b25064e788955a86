package models

import "time"

// ReminderType enumerates supported obligation categories.
type ReminderType string

const (
	ReminderVaccination ReminderType = "vaccination"
	ReminderHealth      ReminderType = "health"
	ReminderGrowth      ReminderType = "growth"
	ReminderBreeding    ReminderType = "breeding"
	ReminderDeworming   ReminderType = "deworming"
	ReminderCustom      ReminderType = "custom"
)

// KnownReminderType reports whether t is one of the supported categories.
func KnownReminderType(t ReminderType) bool {
	switch t {
	case ReminderVaccination, ReminderHealth, ReminderGrowth, ReminderBreeding, ReminderDeworming, ReminderCustom:
		return true
	}
	return false
}

// Reminder is a scheduled future obligation derived from an animal's age or an
// ongoing condition. At most one active reminder may exist for a given
// (type, reference_id, reference_category, due_date); the store enforces this
// with a unique index so repeated generation runs are idempotent.
type Reminder struct {
	ID                string       `bson:"_id" json:"id"`
	Type              ReminderType `bson:"type" json:"type"`
	ReferenceID       string       `bson:"reference_id" json:"reference_id"`
	ReferenceCategory string       `bson:"reference_category" json:"reference_category"`
	DueDate           time.Time    `bson:"due_date" json:"due_date"`
	Title             string       `bson:"title" json:"title"`
	Description       string       `bson:"description" json:"description"`
	IsCompleted       bool         `bson:"is_completed" json:"is_completed"`
	CompletedAt       *time.Time   `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	NotificationSent  bool         `bson:"notification_sent" json:"notification_sent"`
	PerformedBy       *Actor       `bson:"performed_by,omitempty" json:"performed_by,omitempty"`
	CreatedAt         time.Time    `bson:"created_at" json:"created_at"`
}
