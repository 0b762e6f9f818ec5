package service

import (
	"testing"
	"time"

	"github.com/smallbiznis/tally/internal/billingcycle/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func newTestService() domain.Service {
	return NewService(ServiceParam{Log: zap.NewNop()})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriod_MonthlyAligned(t *testing.T) {
	svc := newTestService()

	period, err := svc.Period(date(2026, time.January, 15), domain.IntervalMonth, 1, date(2026, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 15), period.Start)
	assert.Equal(t, date(2026, time.April, 15), period.End)
}

func TestPeriod_MonthEndAnchor_ShortMonth(t *testing.T) {
	svc := newTestService()
	anchor := date(2026, time.January, 31)

	// Feb 28 00:00 is exactly the clamped boundary, so the cycle rolls over.
	period, err := svc.Period(anchor, domain.IntervalMonth, 1, date(2026, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.February, 28), period.Start)
	assert.Equal(t, date(2026, time.March, 31), period.End)

	// One day earlier the calendar difference overcounts; the step-back
	// correction must land the start on the anchor itself.
	period, err = svc.Period(anchor, domain.IntervalMonth, 1, date(2026, time.February, 27))
	require.NoError(t, err)
	assert.Equal(t, anchor, period.Start)
	assert.Equal(t, date(2026, time.February, 28), period.End)
}

func TestPeriod_LeapDayAnchor(t *testing.T) {
	svc := newTestService()
	anchor := date(2024, time.February, 29)

	period, err := svc.Period(anchor, domain.IntervalYear, 1, date(2025, time.February, 15))
	require.NoError(t, err)
	assert.Equal(t, anchor, period.Start)
	assert.Equal(t, date(2025, time.February, 28), period.End)

	period, err = svc.Period(anchor, domain.IntervalYear, 1, date(2028, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2028, time.February, 29), period.Start)
	assert.Equal(t, date(2029, time.February, 28), period.End)
}

func TestPeriod_AnchorInFuture(t *testing.T) {
	svc := newTestService()

	period, err := svc.Period(date(2026, time.May, 1), domain.IntervalMonth, 1, date(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 1), period.Start)
	assert.Equal(t, date(2026, time.April, 1), period.End)
}

func TestPeriod_IntervalCount(t *testing.T) {
	svc := newTestService()

	period, err := svc.Period(date(2026, time.January, 1), domain.IntervalMonth, 3, date(2026, time.July, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.July, 1), period.Start)
	assert.Equal(t, date(2026, time.October, 1), period.End)
}

func TestPeriod_Weekly(t *testing.T) {
	svc := newTestService()

	period, err := svc.Period(date(2026, time.January, 5), domain.IntervalWeek, 1, date(2026, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.January, 19), period.Start)
	assert.Equal(t, date(2026, time.January, 26), period.End)
}

func TestPeriod_Hourly(t *testing.T) {
	svc := newTestService()
	anchor := time.Date(2026, time.January, 1, 9, 30, 0, 0, time.UTC)
	now := time.Date(2026, time.January, 1, 14, 0, 0, 0, time.UTC)

	period, err := svc.Period(anchor, domain.IntervalHour, 1, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 1, 13, 30, 0, 0, time.UTC), period.Start)
	assert.Equal(t, time.Date(2026, time.January, 1, 14, 30, 0, 0, time.UTC), period.End)
}

func TestPeriod_InvalidInputs(t *testing.T) {
	svc := newTestService()
	now := date(2026, time.January, 1)

	_, err := svc.Period(now, domain.CycleInterval("fortnight"), 1, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = svc.Period(now, domain.IntervalMonth, 0, now)
	assert.ErrorIs(t, err, domain.ErrInvalidIntervalCount)
}

var allIntervals = []domain.CycleInterval{
	domain.IntervalMinute,
	domain.IntervalHour,
	domain.IntervalDay,
	domain.IntervalWeek,
	domain.IntervalMonth,
	domain.IntervalQuarter,
	domain.IntervalSemiAnnual,
	domain.IntervalYear,
}

// anchorGen biases anchors toward month-end days, where calendar
// differencing is most likely to go wrong.
func anchorGen(t *rapid.T) time.Time {
	year := rapid.IntRange(2020, 2030).Draw(t, "year")
	month := time.Month(rapid.IntRange(1, 12).Draw(t, "month"))
	day := rapid.SampledFrom([]int{1, 15, 27, 28, 29, 30, 31}).Draw(t, "day")
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	hour := rapid.IntRange(0, 23).Draw(t, "hour")
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestPeriod_ContainsNow(t *testing.T) {
	svc := newTestService()

	rapid.Check(t, func(t *rapid.T) {
		anchor := anchorGen(t)
		interval := rapid.SampledFrom(allIntervals).Draw(t, "interval")
		count := rapid.IntRange(1, 12).Draw(t, "count")
		fiveYears := int64(5 * 365 * 24 * time.Hour)
		now := anchor.Add(time.Duration(rapid.Int64Range(-fiveYears, fiveYears).Draw(t, "offset")))

		period, err := svc.Period(anchor, interval, count, now)
		require.NoError(t, err)

		if now.Before(period.Start) || !now.Before(period.End) {
			t.Fatalf("now %v outside cycle [%v, %v) for anchor %v %s x%d",
				now, period.Start, period.End, anchor, interval, count)
		}
	})
}

func TestPeriod_RoundTrip(t *testing.T) {
	svc := newTestService()

	rapid.Check(t, func(t *rapid.T) {
		anchor := anchorGen(t)
		interval := rapid.SampledFrom(allIntervals).Draw(t, "interval")
		count := rapid.IntRange(1, 6).Draw(t, "count")
		now := anchor.Add(time.Duration(rapid.Int64Range(0, 1e15).Draw(t, "offset")))

		period, err := svc.Period(anchor, interval, count, now)
		require.NoError(t, err)

		// Re-deriving the cycle from its own start must be stable.
		again, err := svc.Period(anchor, interval, count, period.Start)
		require.NoError(t, err)

		if !again.Start.Equal(period.Start) || !again.End.Equal(period.End) {
			t.Fatalf("round trip drifted: [%v, %v) became [%v, %v)",
				period.Start, period.End, again.Start, again.End)
		}
	})
}
