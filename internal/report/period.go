package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tengebook-dev/tengebook/internal/model"
)

// PeriodStart expands an ISO date prefix to the first day it covers:
// "2025" -> 2025-01-01, "2025-03" -> 2025-03-01, full dates pass through.
func PeriodStart(prefix string) (string, error) {
	switch len(prefix) {
	case 4:
		if _, err := strconv.Atoi(prefix); err != nil {
			return "", fmt.Errorf("%w: %q", model.ErrInvalidDate, prefix)
		}
		return prefix + "-01-01", nil
	case 7:
		start := prefix + "-01"
		if _, err := model.ParseDate(start); err != nil {
			return "", err
		}
		return start, nil
	case 10:
		if _, err := model.ParseDate(prefix); err != nil {
			return "", err
		}
		return prefix, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidDate, prefix)
}

// PeriodEnd expands an ISO date prefix to the last day it covers.
func PeriodEnd(prefix string) (string, error) {
	switch len(prefix) {
	case 4:
		if _, err := strconv.Atoi(prefix); err != nil {
			return "", fmt.Errorf("%w: %q", model.ErrInvalidDate, prefix)
		}
		return prefix + "-12-31", nil
	case 7:
		first, err := model.ParseDate(prefix + "-01")
		if err != nil {
			return "", err
		}
		last := first.AddDate(0, 1, -1)
		return last.Format(model.DateFormat), nil
	case 10:
		if _, err := model.ParseDate(prefix); err != nil {
			return "", err
		}
		return prefix, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidDate, prefix)
}

func yearMonth(date string) (int, time.Month, bool) {
	day, err := model.ParseDate(date)
	if err != nil {
		return 0, 0, false
	}
	return day.Year(), day.Month(), true
}
