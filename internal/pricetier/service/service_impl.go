package service

import (
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/internal/pricetier/domain"
	"github.com/smallbiznis/tally/pkg/money"
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
		log: p.Log.Named("pricetier.service"),
	}
}

func (s *Service) Calculate(tiers catalogdomain.UsageTiers, behavior catalogdomain.TierBehavior, usage decimal.Decimal, opts domain.CalcOptions) (decimal.Decimal, error) {
	if len(tiers) == 0 {
		return decimal.Zero, domain.ErrMissingUsageTiers
	}
	if err := tiers.Validate(); err != nil {
		return decimal.Zero, err
	}

	units := opts.BillingUnits
	if !units.IsPositive() {
		units = money.One
	}

	negate := false
	if usage.IsNegative() {
		if !opts.AllowNegative {
			return decimal.Zero, nil
		}
		negate = true
		usage = usage.Abs()
	}

	// Partial blocks are billed as whole blocks.
	rounded := money.CeilToMultiple(usage, units)

	var amount decimal.Decimal
	var err error
	switch behavior {
	case catalogdomain.TierGraduated:
		amount, err = graduated(tiers, rounded, units)
	case catalogdomain.TierVolume:
		amount, err = volume(tiers, rounded, units, opts.VolumeAllowance)
	default:
		return decimal.Zero, domain.ErrUnknownTierBehavior
	}
	if err != nil {
		return decimal.Zero, err
	}

	amount = money.Round(amount)
	if negate {
		amount = amount.Neg()
	}
	return amount, nil
}

// graduated walks the bands in order, consuming quantity into each until it
// is exhausted or the infinite sentinel absorbs the rest.
func graduated(tiers catalogdomain.UsageTiers, quantity, units decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	remaining := quantity
	lastBoundary := decimal.Zero

	for _, tier := range tiers {
		if !remaining.IsPositive() {
			break
		}

		band := remaining
		if !tier.Infinite() {
			band = money.Min(remaining, tier.To.Sub(lastBoundary))
			lastBoundary = *tier.To
		}
		if !band.IsPositive() {
			continue
		}

		perUnit, err := money.Div(tier.Amount, units)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(band.Mul(perUnit))
		remaining = remaining.Sub(band)
	}
	return total, nil
}

// volume bills the whole quantity at the single band it falls into. The
// boundary is inclusive: a quantity exactly on a tier boundary bills at
// that lower tier.
func volume(tiers catalogdomain.UsageTiers, quantity, units decimal.Decimal, allowance *decimal.Decimal) (decimal.Decimal, error) {
	matched := quantity
	if allowance != nil {
		matched = matched.Add(*allowance)
	}

	for _, tier := range tiers {
		if !tier.Infinite() && matched.GreaterThan(*tier.To) {
			continue
		}
		perUnit, err := money.Div(tier.Amount, units)
		if err != nil {
			return decimal.Zero, err
		}
		return quantity.Mul(perUnit), nil
	}

	// No band fits and no sentinel tier exists: corrupted catalog data.
	return decimal.Zero, catalogdomain.ErrInvalidUsageTiers
}
