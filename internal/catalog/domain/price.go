package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	cycledomain "github.com/smallbiznis/tally/internal/billingcycle/domain"
	"gorm.io/datatypes"
)

// PriceType separates recurring flat fees from usage-driven prices.
type PriceType string

const (
	PriceFixed PriceType = "fixed"
	PriceUsage PriceType = "usage"
)

// BillWhen decides at which point in the cycle a usage price is charged.
type BillWhen string

const (
	BillInAdvance     BillWhen = "in_advance"
	BillStartOfPeriod BillWhen = "start_of_period"
	BillEndOfPeriod   BillWhen = "end_of_period"
)

// BillingTiming is the invoice-facing classification derived from BillWhen.
type BillingTiming string

const (
	TimingInArrear  BillingTiming = "in_arrear"
	TimingInAdvance BillingTiming = "in_advance"
)

// TierBehavior selects how usage tiers apply to a quantity.
type TierBehavior string

const (
	TierGraduated TierBehavior = "graduated"
	TierVolume    TierBehavior = "volume"
)

// UsageTier is one pricing band. To is the inclusive upper boundary in
// units; nil marks the infinite sentinel tier.
type UsageTier struct {
	To     *decimal.Decimal `json:"to"`
	Amount decimal.Decimal  `json:"amount"`
}

// Infinite reports whether the tier is the open-ended sentinel.
func (t UsageTier) Infinite() bool { return t.To == nil }

// UsageTiers is the ordered band list of a usage price.
type UsageTiers []UsageTier

var ErrInvalidUsageTiers = errors.New("invalid_usage_tiers")

// Validate checks that boundaries are strictly increasing and only the
// final tier is the infinite sentinel.
func (ts UsageTiers) Validate() error {
	var prev *decimal.Decimal
	for i, tier := range ts {
		if tier.Infinite() {
			if i != len(ts)-1 {
				return ErrInvalidUsageTiers
			}
			continue
		}
		if !tier.To.IsPositive() {
			return ErrInvalidUsageTiers
		}
		if prev != nil && !tier.To.GreaterThan(*prev) {
			return ErrInvalidUsageTiers
		}
		prev = tier.To
	}
	return nil
}

// Price is one way to charge for a product or feature.
type Price struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index"`
	ProductID snowflake.ID `gorm:"column:product_id;not null;index"`
	FeatureID *snowflake.ID `gorm:"column:feature_id;index"`
	Name      string       `gorm:"type:text;not null"`

	Type          PriceType                  `gorm:"column:price_type;type:text;not null"`
	Amount        decimal.Decimal            `gorm:"type:numeric;not null;default:0"`
	Interval      *cycledomain.CycleInterval `gorm:"type:text"`
	IntervalCount int                        `gorm:"not null;default:1"`

	UsageTiers    UsageTiers      `gorm:"serializer:json"`
	BillingUnits  decimal.Decimal `gorm:"type:numeric;not null;default:1"`
	BillWhen      BillWhen        `gorm:"type:text;not null;default:'end_of_period'"`
	TierBehavior  TierBehavior    `gorm:"type:text;not null;default:'graduated'"`
	ShouldProrate bool            `gorm:"not null;default:false"`

	// No column default: gorm drops zero-valued fields on insert, and a
	// default of true would resurrect deactivated rows.
	Active   bool              `gorm:"not null"`
	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Price) TableName() string { return "prices" }

// OneOff reports whether the price has no recurring interval.
func (p Price) OneOff() bool { return p.Interval == nil }

// Timing classifies the price for invoicing. Only end-of-period usage is
// billed in arrear; everything else is charged up front.
func (p Price) Timing() BillingTiming {
	if p.Type == PriceUsage && p.BillWhen == BillEndOfPeriod {
		return TimingInArrear
	}
	return TimingInAdvance
}

var ErrMissingPriceForFeature = errors.New("missing_price_for_feature")

// FindPriceForFeature returns the usage price attached to the feature, if
// any.
func FindPriceForFeature(prices []Price, featureID snowflake.ID) (Price, bool) {
	return lo.Find(prices, func(p Price) bool {
		return p.FeatureID != nil && *p.FeatureID == featureID
	})
}

// RequirePriceForFeature is the raising variant of FindPriceForFeature, for
// callers where a missing price means corrupted catalog data.
func RequirePriceForFeature(prices []Price, featureID snowflake.ID) (Price, error) {
	price, ok := FindPriceForFeature(prices, featureID)
	if !ok {
		return Price{}, ErrMissingPriceForFeature
	}
	return price, nil
}
