package domain

import (
	"errors"
	"time"
)

// Service computes anchor-aligned billing cycle boundaries.
type Service interface {
	// CycleStart returns the start of the cycle containing now.
	CycleStart(anchor time.Time, interval CycleInterval, intervalCount int, now time.Time) (time.Time, error)
	// CycleEnd returns the end of the cycle containing now.
	CycleEnd(anchor time.Time, interval CycleInterval, intervalCount int, now time.Time) (time.Time, error)
	// Period returns both boundaries of the cycle containing now.
	Period(anchor time.Time, interval CycleInterval, intervalCount int, now time.Time) (BillingPeriod, error)
}

var (
	ErrInvalidInterval      = errors.New("invalid_interval")
	ErrInvalidIntervalCount = errors.New("invalid_interval_count")
)
