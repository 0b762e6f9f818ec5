package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/tally/internal/balance/domain"
	cycledomain "github.com/smallbiznis/tally/internal/billingcycle/domain"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/invoicing/domain"
	pricetierdomain "github.com/smallbiznis/tally/internal/pricetier/domain"
	"github.com/smallbiznis/tally/internal/proration"
	"github.com/smallbiznis/tally/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log   *zap.Logger
	clock clock.Clock

	cycles      cycledomain.Service
	tiers       pricetierdomain.Service
	catalogRepo catalogdomain.Repository
	balanceRepo balancedomain.Repository
}

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	Cycles      cycledomain.Service
	Tiers       pricetierdomain.Service
	CatalogRepo catalogdomain.Repository
	BalanceRepo balancedomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("invoicing.service"),
		clock: p.Clock,

		cycles:      p.Cycles,
		tiers:       p.Tiers,
		catalogRepo: p.CatalogRepo,
		balanceRepo: p.BalanceRepo,
	}
}

// BuildInvoiceLineItems assembles the customer product snapshot from the
// stores and runs the pure pipeline at the injected clock's now.
func (s *Service) BuildInvoiceLineItems(ctx context.Context, req domain.BuildRequest) ([]domain.LineItem, error) {
	if !req.Direction.Valid() {
		return nil, domain.ErrInvalidDirection
	}

	product, err := s.catalogRepo.FindProduct(ctx, req.OrgID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	features, err := s.catalogRepo.ListFeatures(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}

	prices, err := s.catalogRepo.ListPrices(ctx, req.OrgID, req.ProductID)
	if err != nil {
		return nil, err
	}

	entitlements, err := s.balanceRepo.ListForCustomerProduct(ctx, req.OrgID, req.CustomerID, req.ProductID)
	if err != nil {
		return nil, err
	}

	view := domain.CustomerProduct{
		Product:      *product,
		Quantity:     productQuantity(entitlements),
		Features:     features,
		Prices:       prices,
		Entitlements: entitlements,
		Options:      req.Options,
	}

	now := s.clock.Now()
	items, err := s.BuildLineItems(view, req.Anchor, now, req.Direction)
	if err != nil {
		s.log.Error("line item build failed",
			zap.Int64("org_id", int64(req.OrgID)),
			zap.Int64("customer_id", int64(req.CustomerID)),
			zap.Int64("product_id", int64(req.ProductID)),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Debug("line items built",
		zap.Int64("customer_id", int64(req.CustomerID)),
		zap.Int64("product_id", int64(req.ProductID)),
		zap.Int("count", len(items)),
	)
	return items, nil
}

// BuildLineItems is the pure invoice pipeline: fixed prices first, then
// prepaid usage purchases, then pay-per-use overage. Every emitted item is
// validated; a broken item aborts the whole pass.
func (s *Service) BuildLineItems(view domain.CustomerProduct, anchor, now time.Time, direction domain.Direction) ([]domain.LineItem, error) {
	if !direction.Valid() {
		return nil, domain.ErrInvalidDirection
	}

	var items []domain.LineItem

	for _, price := range view.Prices {
		if !price.Active || price.Type != catalogdomain.PriceFixed {
			continue
		}
		item, err := s.fixedLine(view, price, anchor, now, direction)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, price := range view.Prices {
		if !price.Active || price.Type != catalogdomain.PriceUsage {
			continue
		}
		if price.Timing() != catalogdomain.TimingInAdvance {
			continue
		}
		purchased := view.OptionQuantity(price.ID)
		if purchased.IsZero() {
			continue
		}
		item, err := s.prepaidLine(view, price, purchased, anchor, now, direction)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, ce := range view.Entitlements {
		if ce.Feature.Kind == catalogdomain.FeatureBoolean || ce.IsUnlimited() {
			continue
		}
		price, err := catalogdomain.RequirePriceForFeature(view.Prices, ce.FeatureID)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", ce.Feature.Code, err)
		}
		if price.Timing() != catalogdomain.TimingInArrear {
			continue
		}
		overage := balancedomain.InvoiceOverage(ce, nil)
		if overage.Quantity.IsZero() {
			continue
		}
		item, err := s.usageLine(view, price, ce.Feature, overage, anchor, now, direction)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *Service) fixedLine(view domain.CustomerProduct, price catalogdomain.Price, anchor, now time.Time, direction domain.Direction) (domain.LineItem, error) {
	quantity := money.FromInt(view.Quantity)
	if quantity.IsZero() {
		quantity = money.One
	}
	amount := price.Amount.Mul(quantity)

	return s.emit(view, price, nil, amount, nil, anchor, now, direction)
}

// prepaidLine bills usage purchased up front. Options count purchased
// blocks, so the unit quantity is the option quantity times the block size.
func (s *Service) prepaidLine(view domain.CustomerProduct, price catalogdomain.Price, purchased decimal.Decimal, anchor, now time.Time, direction domain.Direction) (domain.LineItem, error) {
	var feature *catalogdomain.Feature
	if price.FeatureID != nil {
		if f, ok := view.FindFeature(*price.FeatureID); ok {
			feature = &f
		}
	}

	units := price.BillingUnits
	if !units.IsPositive() {
		units = money.One
	}
	quantity := purchased.Mul(units)

	amount, err := s.tiers.Calculate(price.UsageTiers, price.TierBehavior, quantity, pricetierdomain.CalcOptions{
		BillingUnits: price.BillingUnits,
	})
	if err != nil {
		return domain.LineItem{}, err
	}

	return s.emit(view, price, feature, amount, &quantity, anchor, now, direction)
}

// usageLine bills consumption beyond the allowance. Taking BillableOverage
// rather than a bare decimal keeps display overages out of this path.
func (s *Service) usageLine(view domain.CustomerProduct, price catalogdomain.Price, feature catalogdomain.Feature, overage balancedomain.BillableOverage, anchor, now time.Time, direction domain.Direction) (domain.LineItem, error) {
	quantity := overage.Quantity
	amount, err := s.tiers.Calculate(price.UsageTiers, price.TierBehavior, quantity, pricetierdomain.CalcOptions{
		BillingUnits: price.BillingUnits,
	})
	if err != nil {
		return domain.LineItem{}, err
	}

	return s.emit(view, price, &feature, amount, &quantity, anchor, now, direction)
}

// emit finishes a line item: billing period, effective period, proration,
// refund negation, description and validation. The effective period is
// computed before proration; proration always scales by the full period.
func (s *Service) emit(view domain.CustomerProduct, price catalogdomain.Price, feature *catalogdomain.Feature, amount decimal.Decimal, quantity *decimal.Decimal, anchor, now time.Time, direction domain.Direction) (domain.LineItem, error) {
	timing := price.Timing()

	var period, effective *cycledomain.BillingPeriod
	if !price.OneOff() {
		p, err := s.cycles.Period(anchor, *price.Interval, price.IntervalCount, now)
		if err != nil {
			return domain.LineItem{}, err
		}
		period = &p

		e := proration.EffectivePeriod(timing, p, now)
		effective = &e
	}

	prorated := false
	if price.ShouldProrate && period != nil {
		var err error
		amount, err = proration.Apply(now, *period, amount)
		if err != nil {
			return domain.LineItem{}, err
		}
		prorated = true
	}

	if direction == domain.DirectionRefund {
		amount = amount.Neg()
	}

	item := domain.LineItem{
		Amount:      money.Round(amount),
		Description: describe(view.Product, feature, quantity, effective, direction),
		Prorated:    prorated,

		TotalQuantity: quantity,
		PaidQuantity:  quantity,

		Context: domain.LineItemContext{
			Price:           price,
			Product:         view.Product,
			Feature:         feature,
			Period:          period,
			EffectivePeriod: effective,
			Timing:          timing,
			Direction:       direction,
			Now:             now,
		},
	}

	if err := item.Validate(); err != nil {
		return domain.LineItem{}, err
	}
	return item, nil
}

const periodDateFormat = "Jan 2, 2006"

// describe renders the human line, e.g.
// "Starter - 1500 api calls (from Mar 1, 2026 to Mar 16, 2026)".
func describe(product catalogdomain.Product, feature *catalogdomain.Feature, quantity *decimal.Decimal, effective *cycledomain.BillingPeriod, direction domain.Direction) string {
	text := product.Name
	if feature != nil && quantity != nil {
		rounded := money.RoundTo(*quantity, 0)
		text = fmt.Sprintf("%s - %s %s", product.Name, rounded.String(), feature.DisplayName(rounded))
	}

	if effective != nil {
		text = fmt.Sprintf("%s (from %s to %s)",
			text,
			effective.Start.Format(periodDateFormat),
			effective.End.Format(periodDateFormat),
		)
	}

	if direction == domain.DirectionRefund {
		text = "Unused " + text
	}
	return text
}

// productQuantity reads the subscribed quantity off the balance rows. Every
// row of a product carries the same quantity; zero rows default to one.
func productQuantity(entitlements []balancedomain.CustomerEntitlement) int64 {
	for _, ce := range entitlements {
		if ce.ProductQuantity > 0 {
			return ce.ProductQuantity
		}
	}
	return 1
}
