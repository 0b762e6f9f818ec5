package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	cycledomain "github.com/smallbiznis/tally/internal/billingcycle/domain"
	"gorm.io/datatypes"
)

// AllowanceType describes how much of a feature an entitlement grants.
type AllowanceType string

const (
	AllowanceFixed     AllowanceType = "fixed"
	AllowanceUnlimited AllowanceType = "unlimited"
	AllowanceNone      AllowanceType = "none"
)

// RolloverPolicy caps how much unused balance carries into later cycles and
// for how long.
type RolloverPolicy struct {
	// Max caps the carried balance; nil carries everything.
	Max *decimal.Decimal `json:"max"`
	// Length is how many duration units a rollover entry lives.
	Length   int                       `json:"length"`
	Duration cycledomain.CycleInterval `json:"duration"`
}

// Entitlement is a product-level grant of a feature.
type Entitlement struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index"`
	ProductID snowflake.ID `gorm:"column:product_id;not null;index"`
	FeatureID snowflake.ID `gorm:"column:feature_id;not null;index"`

	AllowanceType AllowanceType    `gorm:"type:text;not null;default:'fixed'"`
	Allowance     *decimal.Decimal `gorm:"type:numeric"`
	// Interval is the reset cadence; nil means the allowance is granted
	// once for the lifetime of the subscription.
	Interval      *cycledomain.CycleInterval `gorm:"type:text"`
	IntervalCount int                        `gorm:"not null;default:1"`
	UsageLimit    *decimal.Decimal           `gorm:"type:numeric"`
	Rollover      *RolloverPolicy            `gorm:"serializer:json"`
	// EntityFeatureID marks the entitlement as entity-scoped: the balance
	// is tracked per sub-entity of that feature (per seat, per workspace).
	EntityFeatureID *string `gorm:"type:text"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Entitlement) TableName() string { return "entitlements" }

// EntityScoped reports whether balances are tracked per sub-entity.
func (e Entitlement) EntityScoped() bool {
	return e.EntityFeatureID != nil && *e.EntityFeatureID != ""
}

// Unlimited reports whether the grant has no allowance ceiling.
func (e Entitlement) Unlimited() bool {
	return e.AllowanceType == AllowanceUnlimited || (e.AllowanceType == AllowanceFixed && e.Allowance == nil)
}

// HasRollover reports whether unused balance carries between cycles.
func (e Entitlement) HasRollover() bool { return e.Rollover != nil }
