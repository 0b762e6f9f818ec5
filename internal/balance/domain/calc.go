package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tally/pkg/money"
)

// BalanceOptions scopes a balance read. EntityID narrows an entity-scoped
// read to one sub-entity; Now is required whenever WithRollovers is set so
// expired rollover entries can be excluded.
type BalanceOptions struct {
	EntityID      *string
	WithRollovers bool
	Now           time.Time
}

// RawBalance returns the signed remaining balance including manual
// adjustments. Negative means overage. Entity-scoped entitlements read only
// the entity map, never the top-level column.
func RawBalance(ce CustomerEntitlement, opts BalanceOptions) decimal.Decimal {
	total := decimal.Zero
	if ce.EntityScoped() {
		if opts.EntityID != nil {
			eb := ce.Entities[*opts.EntityID]
			total = eb.Balance.Add(eb.Adjustment)
		} else {
			for _, eb := range ce.Entities {
				total = total.Add(eb.Balance).Add(eb.Adjustment)
			}
		}
	} else {
		total = ce.Balance.Add(ce.Adjustment)
	}

	if opts.WithRollovers {
		if fields := RolloverFields(ce, opts.EntityID, opts.Now); fields != nil {
			total = total.Add(fields.Balance)
		}
	}
	return total
}

// CurrentBalance is the non-negative remaining balance. Unlimited
// entitlements always report zero.
func CurrentBalance(ce CustomerEntitlement, opts BalanceOptions) decimal.Decimal {
	if ce.IsUnlimited() {
		return decimal.Zero
	}

	total := decimal.Zero
	if ce.EntityScoped() {
		if opts.EntityID != nil {
			eb := ce.Entities[*opts.EntityID]
			total = money.NonNegative(eb.Balance.Add(eb.Adjustment))
		} else {
			for _, eb := range ce.Entities {
				total = total.Add(money.NonNegative(eb.Balance.Add(eb.Adjustment)))
			}
		}
	} else {
		total = money.NonNegative(ce.Balance.Add(ce.Adjustment))
	}

	if opts.WithRollovers {
		if fields := RolloverFields(ce, opts.EntityID, opts.Now); fields != nil {
			total = total.Add(fields.Balance)
		}
	}
	return total
}

// Overage returns the magnitude of consumption beyond the allowance for
// display. Admission decisions in the check evaluator compare raw balances
// instead.
func Overage(ce CustomerEntitlement, entityID *string) DisplayOverage {
	return DisplayOverage{Value: overageMagnitude(ce, entityID)}
}

// InvoiceOverage returns the billable overage quantity: max(0, -balance)
// per entity, summed when unscoped. This is what a pay-per-use in-arrear
// price bills; consumption inside the allowance is free.
func InvoiceOverage(ce CustomerEntitlement, entityID *string) BillableOverage {
	return BillableOverage{Quantity: overageMagnitude(ce, entityID)}
}

func overageMagnitude(ce CustomerEntitlement, entityID *string) decimal.Decimal {
	if ce.IsUnlimited() {
		return decimal.Zero
	}

	total := decimal.Zero
	if ce.EntityScoped() {
		if entityID != nil {
			eb := ce.Entities[*entityID]
			total = money.NonNegative(eb.Balance.Add(eb.Adjustment).Neg())
		} else {
			for _, eb := range ce.Entities {
				total = total.Add(money.NonNegative(eb.Balance.Add(eb.Adjustment).Neg()))
			}
		}
	} else {
		total = money.NonNegative(ce.Balance.Add(ce.Adjustment).Neg())
	}
	return total
}

// GrantedBalance is what the customer started the period with: the
// entitlement allowance scaled by product quantity and entity count, plus
// manual adjustments, plus rollover balance and usage when requested.
func GrantedBalance(ce CustomerEntitlement, opts BalanceOptions) decimal.Decimal {
	if ce.IsUnlimited() {
		return decimal.Zero
	}

	allowance := decimal.Zero
	if ce.Entitlement.Allowance != nil {
		allowance = *ce.Entitlement.Allowance
	}

	quantity := money.FromInt(ce.ProductQuantity)
	if quantity.IsZero() {
		quantity = money.One
	}

	adjustment := decimal.Zero
	entityCount := money.One
	if ce.EntityScoped() {
		if opts.EntityID != nil {
			adjustment = ce.Entities[*opts.EntityID].Adjustment
		} else {
			entityCount = money.FromInt(int64(len(ce.Entities)))
			for _, eb := range ce.Entities {
				adjustment = adjustment.Add(eb.Adjustment)
			}
		}
	} else {
		adjustment = ce.Adjustment
	}

	total := allowance.Mul(quantity).Mul(entityCount).Add(adjustment)

	if opts.WithRollovers {
		if fields := RolloverFields(ce, opts.EntityID, opts.Now); fields != nil {
			total = total.Add(fields.Balance).Add(fields.Usage)
		}
	}
	return total
}

// InvoiceUsage is the total consumption this period. When the customer ran
// into overage the usage is the full grant plus the overage; it is not
// capped at the starting allowance.
func InvoiceUsage(ce CustomerEntitlement, now time.Time) decimal.Decimal {
	if ce.IsUnlimited() {
		return decimal.Zero
	}

	opts := BalanceOptions{WithRollovers: true, Now: now}
	granted := GrantedBalance(ce, opts)

	if overage := Overage(ce, nil); overage.Value.IsPositive() {
		return granted.Add(overage.Value)
	}
	return granted.Sub(CurrentBalance(ce, opts))
}

// RolloverTotals aggregates the non-expired rollover entries of a balance.
type RolloverTotals struct {
	Balance decimal.Decimal
	Usage   decimal.Decimal
	Entries []RolloverEntryTotals
}

// RolloverEntryTotals is the per-entry breakdown inside RolloverTotals.
type RolloverEntryTotals struct {
	ExpiresAt time.Time
	Balance   decimal.Decimal
	Usage     decimal.Decimal
}

// RolloverFields aggregates non-expired rollover entries. It returns nil
// when the entitlement has no rollover policy, so callers can tell "zero
// rollover" apart from "rollover not applicable".
func RolloverFields(ce CustomerEntitlement, entityID *string, now time.Time) *RolloverTotals {
	if !ce.Entitlement.HasRollover() {
		return nil
	}

	totals := &RolloverTotals{}
	for _, entry := range ce.Rollovers {
		if entry.Expired(now) {
			continue
		}

		entryBalance := entry.Balance
		entryUsage := entry.Usage
		if ce.EntityScoped() {
			entryBalance = decimal.Zero
			entryUsage = entry.Usage
			if entityID != nil {
				entryBalance = entry.Entities[*entityID].Balance
			} else {
				for _, eb := range entry.Entities {
					entryBalance = entryBalance.Add(eb.Balance)
				}
			}
		}

		totals.Balance = totals.Balance.Add(entryBalance)
		totals.Usage = totals.Usage.Add(entryUsage)
		totals.Entries = append(totals.Entries, RolloverEntryTotals{
			ExpiresAt: entry.ExpiresAt,
			Balance:   entryBalance,
			Usage:     entryUsage,
		})
	}
	return totals
}

// MinBalance is the floor a balance may reach: the negated maximum
// purchasable overage. Nil means the overage is uncapped and the balance
// has no floor.
func MinBalance(ce CustomerEntitlement) *decimal.Decimal {
	if !ce.OverageAllowed {
		zero := decimal.Zero
		return &zero
	}

	maxOverage := decimal.Zero
	for _, item := range ce.Breakdown {
		if item.BillingMethod != BillingMethodUsage {
			continue
		}
		if item.MaxPurchase == nil {
			return nil
		}
		maxOverage = maxOverage.Add(*item.MaxPurchase)
	}

	floor := maxOverage.Neg()
	return &floor
}

// FeatureBalanceView projects the snapshot into the flat shape the check
// evaluator consumes. Remaining is the raw signed balance with rollovers.
func FeatureBalanceView(ce CustomerEntitlement, entityID *string, now time.Time) FeatureBalance {
	return FeatureBalance{
		FeatureCode:    ce.Feature.Code,
		Remaining:      RawBalance(ce, BalanceOptions{EntityID: entityID, WithRollovers: true, Now: now}),
		Unlimited:      ce.IsUnlimited(),
		OverageAllowed: ce.OverageAllowed,
		Breakdown:      ce.Breakdown,
	}
}
