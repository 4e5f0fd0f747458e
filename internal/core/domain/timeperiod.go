package domain

import (
	"fmt"
	"time"
)

// PeriodType discriminates TimePeriod values.
type PeriodType string

// Time period kinds.
const (
	PeriodDay       PeriodType = "day"
	PeriodWeek      PeriodType = "week"
	PeriodMonth     PeriodType = "month"
	PeriodTimeRange PeriodType = "time_range"
	PeriodDuration  PeriodType = "duration"
	PeriodDatetime  PeriodType = "datetime"
	PeriodUnknown   PeriodType = "unknown"
)

// TimePeriod is a resolved time expression.
// For every known type Start <= End; unknown periods carry zero instants.
type TimePeriod struct {
	Type       PeriodType `json:"type"`
	Start      time.Time  `json:"start,omitzero"`
	End        time.Time  `json:"end,omitzero"`
	Expression string     `json:"expression"`

	// DurationAmount and DurationUnit are set for PeriodDuration ("next 3 days").
	DurationAmount int    `json:"durationAmount,omitempty"`
	DurationUnit   string `json:"durationUnit,omitempty"`
}

// UnknownPeriod returns the sentinel for an unparseable expression.
func UnknownPeriod(expr string) TimePeriod {
	return TimePeriod{Type: PeriodUnknown, Expression: expr}
}

// IsKnown reports whether the period resolved to concrete instants.
func (p TimePeriod) IsKnown() bool {
	return p.Type != PeriodUnknown && p.Type != ""
}

// Validate checks the ordering invariant.
func (p TimePeriod) Validate() error {
	if !p.IsKnown() {
		return nil
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: period %q ends before it starts", ErrInvariantViolation, p.Expression)
	}
	return nil
}

// Contains reports whether t lies within the period (inclusive).
func (p TimePeriod) Contains(t time.Time) bool {
	if !p.IsKnown() {
		return false
	}
	return !t.Before(p.Start) && !t.After(p.End)
}

// Overlaps reports whether [start, end] intersects the period.
func (p TimePeriod) Overlaps(start, end time.Time) bool {
	if !p.IsKnown() {
		return true
	}
	return !end.Before(p.Start) && !start.After(p.End)
}

// String renders the period for prompts and logs.
func (p TimePeriod) String() string {
	if !p.IsKnown() {
		return fmt.Sprintf("unknown(%s)", p.Expression)
	}
	return fmt.Sprintf("%s %s..%s", p.Type, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
}
