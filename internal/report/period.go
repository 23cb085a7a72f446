package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDate    = errors.New("invalid report date")
	ErrEndBeforeStart = errors.New("report end date is before start date")
	ErrUnknownPeriod  = errors.New("unknown report period")
)

var dateLayouts = []string{time.DateOnly, "02.01.2006"}

// ParseDate accepts YYYY-MM-DD or DD.MM.YYYY.
func ParseDate(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	start, end = day(start), day(end)
	if end.Before(start) {
		return Period{}, ErrEndBeforeStart
	}
	return Period{Start: start, End: end}, nil
}

func (p Period) Label() string {
	return p.Start.Format(time.DateOnly) + " — " + p.End.Format(time.DateOnly)
}

// MonthRange returns the month offset months away from ref's month.
func MonthRange(ref time.Time, offset int) Period {
	first := time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: first, End: first.AddDate(0, 1, -1)}
}

func YearRange(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

type QuickPeriod string

const (
	CurrentMonth  QuickPeriod = "current_month"
	PreviousMonth QuickPeriod = "previous_month"
	CurrentYear   QuickPeriod = "current_year"
	PreviousYear  QuickPeriod = "previous_year"
)

// Resolve turns a quick period into dates relative to now.
func (q QuickPeriod) Resolve(now time.Time) (Period, error) {
	switch q {
	case CurrentMonth:
		return MonthRange(now, 0), nil
	case PreviousMonth:
		return MonthRange(now, -1), nil
	case CurrentYear:
		return YearRange(now.Year()), nil
	case PreviousYear:
		return YearRange(now.Year() - 1), nil
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(q))
	}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
