package payperiod

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const DateLayout = "2006-01-02"

var ErrBeforeAnchor = errors.New("time is before the first pay period")

// Period is the half-open interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Label renders the period as "YYYY-MM-DD to YYYY-MM-DD" with an inclusive last day.
func (p Period) Label() string {
	return fmt.Sprintf("%s to %s", p.Start.Format(DateLayout), p.End.AddDate(0, 0, -1).Format(DateLayout))
}

// Calendar generates pay periods of a fixed number of weeks from an anchor date.
type Calendar struct {
	rule  *rrule.RRule
	weeks int
}

func New(anchor time.Time, weeks int) (*Calendar, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("pay period length must be positive, got %d weeks", weeks)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: weeks,
		Dtstart:  anchor,
	})
	if err != nil {
		return nil, err
	}

	return &Calendar{rule: rule, weeks: weeks}, nil
}

// Parse builds a calendar from an anchor in YYYY-MM-DD form, in the local zone.
func Parse(anchor string, weeks int) (*Calendar, error) {
	t, err := time.ParseInLocation(DateLayout, anchor, time.Local)
	if err != nil {
		return nil, err
	}
	return New(t, weeks)
}

func (c *Calendar) period(start time.Time) Period {
	return Period{Start: start, End: start.AddDate(0, 0, 7*c.weeks)}
}

// Containing returns the period that t falls in.
func (c *Calendar) Containing(t time.Time) (Period, error) {
	start := c.rule.Before(t, true)
	if start.IsZero() {
		return Period{}, ErrBeforeAnchor
	}
	return c.period(start), nil
}

// Recent returns up to count periods that ended at or before now, oldest first.
func (c *Calendar) Recent(now time.Time, count int) []Period {
	current, err := c.Containing(now)
	if err != nil {
		return []Period{}
	}

	periods := make([]Period, 0, count)
	end := current.Start
	for len(periods) < count {
		start := c.rule.Before(end, false)
		if start.IsZero() {
			break
		}
		periods = append(periods, c.period(start))
		end = start
	}

	// collected newest first
	for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
		periods[i], periods[j] = periods[j], periods[i]
	}

	return periods
}
