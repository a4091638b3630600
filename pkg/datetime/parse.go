// Package datetime handles the YYYY-MM months used for closings and balloon
// due dates.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/offer-oven/pkg/constants"
)

const (
	// DateTimeLayout is the month format expected in deal books and is also the
	// output date format.
	DateTimeLayout = constants.DateTimeLayout
)

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// ValidMonth reports an error when date is not a YYYY-MM month.
func ValidMonth(date string) error {
	if _, err := time.Parse(DateTimeLayout, date); err != nil {
		return fmt.Errorf("expected month in %s format, got %q", DateTimeLayout, date)
	}
	return nil
}

// CurrentMonth returns the month containing now in DateTimeLayout.
func CurrentMonth(now time.Time) string {
	return now.Format(DateTimeLayout)
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := time.Parse(DateTimeLayout, firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := time.Parse(DateTimeLayout, secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}
