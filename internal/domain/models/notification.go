package models

import "time"

// NotificationPriority orders notifications by urgency.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is a per-recipient inbox message. Rows are owned by their
// recipient; all mutations are scoped to the owning recipient id.
type Notification struct {
	ID          string               `bson:"_id" json:"id"`
	Recipient   string               `bson:"recipient" json:"recipient"`
	Type        string               `bson:"type" json:"type"`
	Title       string               `bson:"title" json:"title"`
	Message     string               `bson:"message" json:"message"`
	Link        string               `bson:"link,omitempty" json:"link,omitempty"`
	Priority    NotificationPriority `bson:"priority" json:"priority"`
	IsRead      bool                 `bson:"is_read" json:"is_read"`
	ReadAt      *time.Time           `bson:"read_at,omitempty" json:"read_at,omitempty"`
	ExpiresAt   *time.Time           `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	PerformedBy *Actor               `bson:"performed_by,omitempty" json:"performed_by,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// NotificationFilter narrows inbox listings. Zero values mean "no filter".
type NotificationFilter struct {
	UnreadOnly  bool
	Type        string
	Priority    NotificationPriority
	Search      string
	PerformedBy string
	From        *time.Time
	To          *time.Time
}

// Page bounds a listing. A zero Limit falls back to the store default.
type Page struct {
	Limit  int
	Offset int
}

// BroadcastResult reports a fan-out outcome. Fan-out is not atomic: a failed
// recipient does not stop delivery to the rest.
type BroadcastResult struct {
	Delivered []Notification `json:"delivered"`
	Failed    int            `json:"failed"`
}
