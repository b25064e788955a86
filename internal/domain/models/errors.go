package models

import "errors"

// ErrNotFound indicates the referenced reminder, notification, animal or
// snapshot does not exist (or is not visible to the acting recipient).
var ErrNotFound = errors.New("not found")

// ErrInvalidInput indicates caller-supplied data failed a required-field or
// invariant check. Nothing is persisted when it is returned.
var ErrInvalidInput = errors.New("invalid input")
