package domain

import (
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DayKey is the calendar-date partition (YYYY-MM-DD) of one record/digest pair.
type DayKey string

// DayKeyFor returns the day key of t in the given time zone.
func DayKeyFor(t time.Time, loc *time.Location) DayKey {
	if loc == nil {
		loc = time.UTC
	}
	return DayKey(t.In(loc).Format(dayKeyLayout))
}

// ParseDayKey validates a YYYY-MM-DD string.
func ParseDayKey(value string) (DayKey, error) {
	if _, err := time.Parse(dayKeyLayout, value); err != nil {
		return "", &ConfigError{Field: "day", Err: fmt.Errorf("invalid day key %q: %w", value, err)}
	}
	return DayKey(value), nil
}

// Valid reports whether the key is a well-formed calendar date.
func (d DayKey) Valid() bool {
	_, err := time.Parse(dayKeyLayout, string(d))
	return err == nil
}

func (d DayKey) String() string {
	return string(d)
}
