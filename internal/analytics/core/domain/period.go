package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is the width of a metric bucket.
type Period string

const (
	PeriodHourly  Period = "hourly"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

var allPeriods = []Period{PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allPeriods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// ParsePeriods parses a comma separated list, e.g. "hourly,daily".
// Duplicates are dropped, order is preserved.
func ParsePeriods(s string) ([]Period, error) {
	var out []Period
	seen := map[Period]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePeriod(part)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no periods in %q", s)
	}
	return out, nil
}

// Align returns the start of the bucket containing t, in UTC.
// Weeks start on Monday.
func (p Period) Align(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodHourly:
		return t.Truncate(time.Hour)
	case PeriodDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}
