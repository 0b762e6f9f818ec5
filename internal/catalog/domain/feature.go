// Package domain contains the billable catalog: features, prices and
// product-level entitlements. Catalog rows are read-only inputs to the
// billing engine; mutation happens in external admin flows.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FeatureKind classifies what a feature meters.
type FeatureKind string

const (
	FeatureBoolean      FeatureKind = "boolean"
	FeatureMetered      FeatureKind = "metered"
	FeatureCreditSystem FeatureKind = "credit_system"
)

// UsageType distinguishes consumable usage from allocated capacity.
type UsageType string

const (
	UsageSingle     UsageType = "single_use"
	UsageContinuous UsageType = "continuous"
)

// CreditSchemaItem maps one metered feature onto its credit cost per unit.
type CreditSchemaItem struct {
	MeteredFeatureID string          `json:"metered_feature_id"`
	CreditCost       decimal.Decimal `json:"credit_cost"`
}

// Feature is a billable capability.
type Feature struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index:ux_features_org_code,priority:1"`
	Code  string       `gorm:"type:text;not null;index:ux_features_org_code,priority:2"`

	Name         string             `gorm:"type:text;not null"`
	PluralName   *string            `gorm:"type:text"`
	Kind         FeatureKind        `gorm:"column:feature_kind;type:text;not null"`
	UsageType    *UsageType         `gorm:"type:text"`
	CreditSchema []CreditSchemaItem `gorm:"serializer:json"`
	Active       bool               `gorm:"not null"`
	Metadata     datatypes.JSONMap  `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Feature) TableName() string { return "features" }

// CreditCostFor returns the credit cost per unit of the given metered
// feature, defaulting to 1 when the schema lists the feature without an
// explicit cost.
func (f Feature) CreditCostFor(meteredFeatureCode string) (decimal.Decimal, bool) {
	if f.Kind != FeatureCreditSystem {
		return decimal.Zero, false
	}
	for _, item := range f.CreditSchema {
		if item.MeteredFeatureID == meteredFeatureCode {
			if item.CreditCost.IsZero() {
				return decimal.NewFromInt(1), true
			}
			return item.CreditCost, true
		}
	}
	return decimal.Zero, false
}

// DisplayName renders the feature name pluralized for the given quantity.
func (f Feature) DisplayName(quantity decimal.Decimal) string {
	if quantity.Abs().Equal(decimal.NewFromInt(1)) {
		return f.Name
	}
	if f.PluralName != nil && *f.PluralName != "" {
		return *f.PluralName
	}
	if strings.HasSuffix(f.Name, "s") {
		return f.Name
	}
	return f.Name + "s"
}
