// Package datetime maps simulation month indexes onto calendar months.
package datetime

import (
	"time"

	"github.com/iwvelando/rental-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// ResolveStartDate returns startDate when set, otherwise the month of now.
// The result is validated against DateTimeLayout.
func ResolveStartDate(startDate string, now time.Time) (string, error) {
	if startDate == "" {
		return now.Format(DateTimeLayout), nil
	}
	if _, err := time.Parse(DateTimeLayout, startDate); err != nil {
		return "", err
	}
	return startDate, nil
}

// ParseMonth parses a month in DateTimeLayout.
func ParseMonth(month string) (time.Time, error) {
	return time.Parse(DateTimeLayout, month)
}

// MonthLabel returns the calendar label of the given simulation month
// counted from start.
func MonthLabel(start time.Time, month int) string {
	return start.AddDate(0, month, 0).Format(DateTimeLayout)
}
