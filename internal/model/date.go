package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the ISO calendar-day form all ledger dates are stored in.
const DateFormat = "2006-01-02"

// ParseDate validates a strict YYYY-MM-DD string with real calendar bounds.
func ParseDate(value string) (time.Time, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
		}
	}
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		// time.Parse rejects out-of-range month/day values.
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// Today returns the current calendar day in ISO form.
func Today() string {
	return time.Now().Format(DateFormat)
}

// EnsureNotFuture rejects dates after the current calendar day.
func EnsureNotFuture(value string) error {
	t, err := ParseDate(value)
	if err != nil {
		return err
	}
	if t.After(time.Now()) {
		return fmt.Errorf("%w: %q", ErrFutureDate, value)
	}
	return nil
}
