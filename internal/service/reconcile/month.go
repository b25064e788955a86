package reconcile

import (
	"fmt"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const monthKeyLayout = "2006-01"

// MonthRange resolves a "YYYY-MM" key to the UTC half-open interval
// [first of month, first of next month).
func MonthRange(monthKey string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(monthKeyLayout, monthKey, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month key %q must be YYYY-MM", models.ErrInvalidInput, monthKey)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// PrevMonthKey returns the key of the month preceding the given one.
func PrevMonthKey(monthKey string) (string, error) {
	start, _, err := MonthRange(monthKey)
	if err != nil {
		return "", err
	}
	return start.AddDate(0, -1, 0).Format(monthKeyLayout), nil
}
