package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"library-assessment/internal/model"
)

const dateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("invalid date range")

// ParseDuration safely parses duration string like "5m", falling back to def
func ParseDuration(d string, def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidDateRange, s)
	}
	return t, nil
}

// NormalizeDateRange trims and checks both bounds; an empty range is valid
func NormalizeDateRange(r model.DateRange) (model.DateRange, error) {
	out := model.DateRange{From: strings.TrimSpace(r.From), To: strings.TrimSpace(r.To)}
	if out.IsZero() {
		return out, nil
	}
	if out.From == "" || out.To == "" {
		return model.DateRange{}, fmt.Errorf("%w: both from and to are required", ErrInvalidDateRange)
	}

	from, err := ParseDate(out.From)
	if err != nil {
		return model.DateRange{}, err
	}
	to, err := ParseDate(out.To)
	if err != nil {
		return model.DateRange{}, err
	}
	if to.Before(from) {
		return model.DateRange{}, fmt.Errorf("%w: ends (%s) before it starts (%s)", ErrInvalidDateRange, out.To, out.From)
	}
	return out, nil
}
