package models

// Actor identifies who performed an action. Audit display only, never used
// for access control.
type Actor struct {
	ID          string `bson:"id" json:"id"`
	DisplayName string `bson:"display_name" json:"display_name"`
}
