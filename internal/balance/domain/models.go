// Package domain contains the customer entitlement balance snapshot and the
// pure read calculations the engine derives from it. Balances are mutated by
// external usage-deduction and reset jobs; the engine only reads them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"gorm.io/datatypes"
)

// EntityBalance is the per-sub-entity counter of an entity-scoped
// entitlement (one row per seat, workspace, and so on).
type EntityBalance struct {
	Balance    decimal.Decimal `json:"balance"`
	Adjustment decimal.Decimal `json:"adjustment"`
}

// RolloverEntry is a snapshot of unused balance and usage carried from a
// prior cycle. Written by the external reset job, read-only here.
type RolloverEntry struct {
	Balance   decimal.Decimal          `json:"balance"`
	Usage     decimal.Decimal          `json:"usage"`
	Entities  map[string]EntityBalance `json:"entities,omitempty"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// Expired reports whether the entry no longer counts at the given instant.
func (r RolloverEntry) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// BillingMethod classifies how a breakdown item is paid for.
type BillingMethod string

const (
	BillingMethodUsage   BillingMethod = "usage_based"
	BillingMethodPrepaid BillingMethod = "prepaid"
)

// BreakdownItem describes one price contributing to a balance, carrying the
// overage purchase limits the check evaluator needs.
type BreakdownItem struct {
	PriceID       snowflake.ID  `json:"price_id"`
	BillingMethod BillingMethod `json:"billing_method"`
	// MaxPurchase caps how much overage may be bought; nil is uncapped.
	MaxPurchase      *decimal.Decimal `json:"max_purchase"`
	PurchasedOverage decimal.Decimal  `json:"purchased_overage"`
}

// CustomerEntitlement binds one customer to one entitlement and tracks the
// live balance. Negative balance means consumption beyond the allowance.
type CustomerEntitlement struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"column:org_id;not null;index"`
	CustomerID    snowflake.ID `gorm:"column:customer_id;not null;index"`
	EntitlementID snowflake.ID `gorm:"column:entitlement_id;not null;index"`
	FeatureID     snowflake.ID `gorm:"column:feature_id;not null;index"`

	Balance         decimal.Decimal          `gorm:"type:numeric;not null;default:0"`
	Adjustment      decimal.Decimal          `gorm:"type:numeric;not null;default:0"`
	Unlimited       bool                     `gorm:"not null;default:false"`
	ProductQuantity int64                    `gorm:"not null;default:1"`
	Entities        map[string]EntityBalance `gorm:"serializer:json"`
	Rollovers       []RolloverEntry          `gorm:"serializer:json"`
	// Replaceables counts credits reserved for future replacement. Display
	// only; no calculation reads it.
	Replaceables   int64           `gorm:"not null;default:0"`
	OverageAllowed bool            `gorm:"not null;default:false"`
	Breakdown      []BreakdownItem `gorm:"serializer:json"`

	Entitlement catalogdomain.Entitlement `gorm:"foreignKey:EntitlementID"`
	Feature     catalogdomain.Feature     `gorm:"foreignKey:FeatureID"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerEntitlement) TableName() string { return "customer_entitlements" }

// EntityScoped reports whether balances live on the per-entity map. When
// true the top-level Balance column is unused and must not be read.
func (ce CustomerEntitlement) EntityScoped() bool {
	return ce.Entitlement.EntityScoped()
}

// IsUnlimited folds the balance-level flag with the entitlement grant.
func (ce CustomerEntitlement) IsUnlimited() bool {
	return ce.Unlimited || ce.Entitlement.Unlimited()
}

// FeatureBalance is the in-memory shape the check evaluator works on: one
// feature's raw signed remaining balance plus its overage capacity inputs.
type FeatureBalance struct {
	FeatureCode    string
	Remaining      decimal.Decimal
	Unlimited      bool
	OverageAllowed bool
	Breakdown      []BreakdownItem
}

// AvailableOverage returns the remaining purchasable overage capacity across
// usage-billed breakdown items. The second result reports an uncapped item,
// which makes the capacity infinite.
func (b FeatureBalance) AvailableOverage() (decimal.Decimal, bool) {
	capacity := decimal.Zero
	for _, item := range b.Breakdown {
		if item.BillingMethod != BillingMethodUsage {
			continue
		}
		if item.MaxPurchase == nil {
			return decimal.Zero, true
		}
		remaining := item.MaxPurchase.Sub(item.PurchasedOverage)
		if remaining.IsPositive() {
			capacity = capacity.Add(remaining)
		}
	}
	return capacity, false
}

// DisplayOverage is the magnitude of negative balance for dashboards and
// invoice presentation. It is a distinct type so it cannot be fed back into
// admission decisions or amount computations by accident.
type DisplayOverage struct {
	Value decimal.Decimal
}

// BillableOverage is the usage beyond the included allowance that a
// pay-per-use price bills. Distinct from DisplayOverage so presentation
// values never flow into an amount computation, and billable quantities
// never flow into an admission decision.
type BillableOverage struct {
	Quantity decimal.Decimal
}
