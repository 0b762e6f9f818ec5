// Package proration scales charges to the fraction of a billing period they
// cover.
package proration

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	cycledomain "github.com/smallbiznis/tally/internal/billingcycle/domain"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/pkg/money"
)

// ErrZeroLengthPeriod indicates a corrupted billing period; proration would
// divide by its length.
var ErrZeroLengthPeriod = errors.New("zero_length_period")

// Apply scales amount to the unexpired fraction of the period:
// amount x (end - now) / (end - start). At the period start the full amount
// survives; at the end nothing does.
func Apply(now time.Time, period cycledomain.BillingPeriod, amount decimal.Decimal) (decimal.Decimal, error) {
	if !period.Valid() {
		return decimal.Zero, ErrZeroLengthPeriod
	}

	remaining := decimal.NewFromInt(int64(period.End.Sub(now)))
	length := decimal.NewFromInt(int64(period.End.Sub(period.Start)))

	fraction, err := money.Div(remaining, length)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Round(amount.Mul(fraction)), nil
}

// EffectivePeriod is the span actually being charged, as opposed to the
// full cycle: in-arrear charges cover [start, now], in-advance charges
// cover [now, end]. Callers needing both proration and the effective period
// must compute this first; proration always uses the full period.
func EffectivePeriod(timing catalogdomain.BillingTiming, period cycledomain.BillingPeriod, now time.Time) cycledomain.BillingPeriod {
	if timing == catalogdomain.TimingInArrear {
		return cycledomain.BillingPeriod{Start: period.Start, End: now}
	}
	return cycledomain.BillingPeriod{Start: now, End: period.End}
}
