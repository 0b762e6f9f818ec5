// Package domain defines the tiered pricing calculator contract.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
)

// CalcOptions tunes one pricing calculation.
type CalcOptions struct {
	// BillingUnits is the purchasable block size; usage is rounded up to a
	// whole number of blocks before tier lookup. Zero means 1.
	BillingUnits decimal.Decimal
	// AllowNegative prices the absolute value of a negative usage and
	// negates the result, for refund and downgrade credits.
	AllowNegative bool
	// VolumeAllowance is a free bucket added to the quantity being
	// tier-matched for volume pricing, so it can push the customer into a
	// higher band. The billed quantity itself is unchanged.
	VolumeAllowance *decimal.Decimal
}

// Service prices a usage quantity against ordered tiers.
type Service interface {
	Calculate(tiers catalogdomain.UsageTiers, behavior catalogdomain.TierBehavior, usage decimal.Decimal, opts CalcOptions) (decimal.Decimal, error)
}

var (
	// ErrMissingUsageTiers indicates corrupted catalog data: a usage price
	// must always carry tiers.
	ErrMissingUsageTiers   = errors.New("missing_usage_tiers")
	ErrUnknownTierBehavior = errors.New("unknown_tier_behavior")
)
