// Package domain contains cycle intervals and billing periods.
package domain

import "time"

// CycleInterval is the calendar unit a billing cycle advances by.
type CycleInterval string

const (
	IntervalMinute     CycleInterval = "MINUTE"
	IntervalHour       CycleInterval = "HOUR"
	IntervalDay        CycleInterval = "DAY"
	IntervalWeek       CycleInterval = "WEEK"
	IntervalMonth      CycleInterval = "MONTH"
	IntervalQuarter    CycleInterval = "QUARTER"
	IntervalSemiAnnual CycleInterval = "SEMI_ANNUAL"
	IntervalYear       CycleInterval = "YEAR"
)

// Valid reports whether the interval is a known calendar unit.
func (i CycleInterval) Valid() bool {
	switch i {
	case IntervalMinute, IntervalHour, IntervalDay, IntervalWeek,
		IntervalMonth, IntervalQuarter, IntervalSemiAnnual, IntervalYear:
		return true
	}
	return false
}

// Months returns how many calendar months one interval spans, or 0 for
// sub-month intervals.
func (i CycleInterval) Months() int {
	switch i {
	case IntervalMonth:
		return 1
	case IntervalQuarter:
		return 3
	case IntervalSemiAnnual:
		return 6
	case IntervalYear:
		return 12
	}
	return 0
}

// Duration returns the fixed duration of one sub-month interval, or 0 for
// month-based intervals whose length varies by calendar.
func (i CycleInterval) Duration() time.Duration {
	switch i {
	case IntervalMinute:
		return time.Minute
	case IntervalHour:
		return time.Hour
	case IntervalDay:
		return 24 * time.Hour
	case IntervalWeek:
		return 7 * 24 * time.Hour
	}
	return 0
}

// BillingPeriod is one cycle of a subscription, [Start, End).
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the period has positive length. Zero-length periods
// are a configuration error: downstream proration divides by the length.
func (p BillingPeriod) Valid() bool {
	return p.End.After(p.Start)
}

// Contains reports whether t falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}
