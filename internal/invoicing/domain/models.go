// Package domain defines the invoice line items produced by the billing
// engine and the customer product view they are built from.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/tally/internal/balance/domain"
	cycledomain "github.com/smallbiznis/tally/internal/billingcycle/domain"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
)

// Direction tells whether a line item charges or refunds the customer.
type Direction string

const (
	DirectionCharge Direction = "charge"
	DirectionRefund Direction = "refund"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionCharge || d == DirectionRefund
}

// PurchasedOption is a quantity of a prepaid usage price the customer
// bought for the upcoming period. Supplied by the billing-run caller.
type PurchasedOption struct {
	PriceID  snowflake.ID    `json:"price_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CustomerProduct is the immutable snapshot the line-item builder consumes:
// a product together with its prices, catalog features, the customer's
// balance rows and any purchased prepaid options. The product reference is
// required; product-less entitlement snapshots belong to the balance model
// and are never accepted here.
type CustomerProduct struct {
	Product      catalogdomain.Product
	Quantity     int64
	Features     []catalogdomain.Feature
	Prices       []catalogdomain.Price
	Entitlements []balancedomain.CustomerEntitlement
	Options      []PurchasedOption
}

// OptionQuantity returns the purchased quantity for a prepaid price, zero
// when the customer bought none.
func (cp CustomerProduct) OptionQuantity(priceID snowflake.ID) decimal.Decimal {
	option, ok := lo.Find(cp.Options, func(o PurchasedOption) bool {
		return o.PriceID == priceID
	})
	if !ok {
		return decimal.Zero
	}
	return option.Quantity
}

// FindFeature resolves a catalog feature by id.
func (cp CustomerProduct) FindFeature(featureID snowflake.ID) (catalogdomain.Feature, bool) {
	return lo.Find(cp.Features, func(f catalogdomain.Feature) bool {
		return f.ID == featureID
	})
}

// LineItemContext carries the inputs a line item was computed from. The
// billing period is the full cycle; the effective period is the span
// actually charged. Both stay on the item so downstream rendering never
// recomputes them.
type LineItemContext struct {
	Price   catalogdomain.Price
	Product catalogdomain.Product
	Feature *catalogdomain.Feature

	Period          *cycledomain.BillingPeriod
	EffectivePeriod *cycledomain.BillingPeriod
	Timing          catalogdomain.BillingTiming
	Direction       Direction
	Now             time.Time
}

// LineItem is one priced entry of an invoice pass. Immutable after build.
type LineItem struct {
	Amount      decimal.Decimal
	Description string
	Prorated    bool

	TotalQuantity *decimal.Decimal
	PaidQuantity  *decimal.Decimal

	Context LineItemContext
}

// ErrInvalidLineItem indicates the builder produced a structurally broken
// line item. This is an internal fault and halts the invoicing pass; items
// are never silently dropped.
var ErrInvalidLineItem = errors.New("invalid_line_item")

// Validate checks structural integrity before the item leaves the builder.
func (li LineItem) Validate() error {
	if li.Description == "" {
		return ErrInvalidLineItem
	}
	if !li.Context.Direction.Valid() {
		return ErrInvalidLineItem
	}
	if li.Context.Product.ID == 0 {
		return ErrInvalidLineItem
	}
	if li.Context.Period != nil && !li.Context.Period.Valid() {
		return ErrInvalidLineItem
	}
	if li.Context.Direction == DirectionRefund && li.Amount.IsPositive() {
		return ErrInvalidLineItem
	}
	if li.Context.Direction == DirectionCharge && li.Amount.IsNegative() {
		return ErrInvalidLineItem
	}
	return nil
}
