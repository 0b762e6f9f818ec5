package service

import (
	"time"

	"github.com/smallbiznis/tally/internal/billingcycle/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log: p.Log.Named("billingcycle.service"),
	}
}

func (s *Service) CycleStart(anchor time.Time, interval domain.CycleInterval, intervalCount int, now time.Time) (time.Time, error) {
	period, err := s.Period(anchor, interval, intervalCount, now)
	if err != nil {
		return time.Time{}, err
	}
	return period.Start, nil
}

func (s *Service) CycleEnd(anchor time.Time, interval domain.CycleInterval, intervalCount int, now time.Time) (time.Time, error) {
	period, err := s.Period(anchor, interval, intervalCount, now)
	if err != nil {
		return time.Time{}, err
	}
	return period.End, nil
}

// Period finds the cycle containing now without iterating cycle by cycle:
// it counts whole intervals between the anchor and now, floors that to a
// cycle number, and places the boundaries by adding intervals back onto the
// anchor. Calendar differencing rounds asymmetrically when the anchor sits
// on a day the target month does not have (29th-31st anchors), so the
// candidate start is verified against now and stepped back one cycle when it
// lands in the future.
func (s *Service) Period(anchor time.Time, interval domain.CycleInterval, intervalCount int, now time.Time) (domain.BillingPeriod, error) {
	if !interval.Valid() {
		return domain.BillingPeriod{}, domain.ErrInvalidInterval
	}
	if intervalCount <= 0 {
		return domain.BillingPeriod{}, domain.ErrInvalidIntervalCount
	}

	anchor = anchor.UTC()
	now = now.UTC()

	passed := intervalsBetween(anchor, now, interval)
	cycles := floorDiv(passed, int64(intervalCount))

	start := addIntervals(anchor, interval, cycles*int64(intervalCount))
	if start.After(now) {
		cycles--
		start = addIntervals(anchor, interval, cycles*int64(intervalCount))
	}
	end := addIntervals(anchor, interval, (cycles+1)*int64(intervalCount))

	return domain.BillingPeriod{Start: start, End: end}, nil
}

// intervalsBetween counts whole intervals from anchor to now. For month
// based intervals this is a calendar difference, which may overcount by one
// near month ends; the caller corrects for that.
func intervalsBetween(anchor, now time.Time, interval domain.CycleInterval) int64 {
	if months := interval.Months(); months > 0 {
		ay, am, _ := anchor.Date()
		ny, nm, _ := now.Date()
		raw := int64(ny-ay)*12 + int64(nm) - int64(am)
		return floorDiv(raw, int64(months))
	}
	return floorDiv(int64(now.Sub(anchor)), int64(interval.Duration()))
}

// addIntervals advances the anchor by n intervals, clamping the day of
// month into the target month so a Jan 31 anchor yields Feb 28 rather than
// overflowing into March.
func addIntervals(anchor time.Time, interval domain.CycleInterval, n int64) time.Time {
	if months := interval.Months(); months > 0 {
		return addMonthsClamped(anchor, n*int64(months))
	}
	return anchor.Add(time.Duration(n) * interval.Duration())
}

func addMonthsClamped(t time.Time, months int64) time.Time {
	year, month, day := t.Date()
	total := int64(year)*12 + int64(month) - 1 + months
	targetYear := int(floorDiv(total, 12))
	targetMonth := time.Month(mod(total, 12) + 1)

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(targetYear, targetMonth, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
