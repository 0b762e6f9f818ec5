package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/tally/internal/balance/domain"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/internal/check/domain"
	"github.com/smallbiznis/tally/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	BalanceRepo balancedomain.Repository
	CatalogRepo catalogdomain.Repository
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	balanceRepo balancedomain.Repository
	catalogRepo catalogdomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:         p.Log.Named("check.service"),
		clock:       p.Clock,
		balanceRepo: p.BalanceRepo,
		catalogRepo: p.CatalogRepo,
	}
}

// Snapshot is the in-memory state one admission decision runs against. The
// caller acquires it consistently (under a row lock or transaction) before
// evaluating, so a concurrent deduction cannot race the decision.
type Snapshot struct {
	Features []catalogdomain.Feature
	Balances map[string]balancedomain.FeatureBalance
}

// BuildSnapshot projects customer entitlement rows into a Snapshot, scoped
// to one entity when entityID is set.
func BuildSnapshot(cusEnts []balancedomain.CustomerEntitlement, features []catalogdomain.Feature, entityID *string, now time.Time) Snapshot {
	balances := make(map[string]balancedomain.FeatureBalance, len(cusEnts))
	for _, ce := range cusEnts {
		balances[ce.Feature.Code] = balancedomain.FeatureBalanceView(ce, entityID, now)
	}
	return Snapshot{Features: features, Balances: balances}
}

func (s *Service) IsFeatureAllowed(ctx context.Context, orgID, customerID snowflake.ID, featureCode string, required decimal.Decimal, entityID *string) (domain.CheckResult, error) {
	cusEnts, err := s.balanceRepo.ListForCustomer(ctx, orgID, customerID)
	if err != nil {
		return domain.CheckResult{}, err
	}
	features, err := s.catalogRepo.ListFeatures(ctx, orgID)
	if err != nil {
		return domain.CheckResult{}, err
	}

	snapshot := BuildSnapshot(cusEnts, features, entityID, s.clock.Now())
	result, err := Evaluate(snapshot, featureCode, required)
	if err != nil {
		return domain.CheckResult{}, err
	}

	s.log.Debug("feature check evaluated",
		zap.String("feature", featureCode),
		zap.Bool("allowed", result.Allowed),
		zap.String("required", result.RequiredBalance.String()),
		zap.String("remaining", result.Balance.Remaining.String()),
	)
	return result, nil
}

// Evaluate runs the admission decision against a snapshot. When the
// feature's own balance cannot satisfy the request, sibling credit systems
// whose schema covers the feature are tried in order; the first one that
// allows wins, and a denial is reported against the first credit system's
// balance so the caller sees the balance that actually gates the feature.
func Evaluate(snapshot Snapshot, featureCode string, required decimal.Decimal) (domain.CheckResult, error) {
	feature, ok := lo.Find(snapshot.Features, func(f catalogdomain.Feature) bool {
		return f.Code == featureCode
	})
	if !ok {
		return domain.CheckResult{}, domain.ErrFeatureNotFound
	}

	bal, ok := snapshot.Balances[featureCode]
	if !ok {
		return domain.CheckResult{}, domain.ErrFeatureNotFound
	}

	if IsAllowed(bal, feature, required) {
		return domain.CheckResult{Allowed: true, RequiredBalance: required, Balance: bal}, nil
	}

	type creditAttempt struct {
		balance  balancedomain.FeatureBalance
		required decimal.Decimal
	}
	var firstAttempt *creditAttempt

	if feature.Kind != catalogdomain.FeatureCreditSystem {
		creditSystems := lo.Filter(snapshot.Features, func(f catalogdomain.Feature, _ int) bool {
			_, covers := f.CreditCostFor(featureCode)
			return covers
		})

		for _, cs := range creditSystems {
			cost, _ := cs.CreditCostFor(featureCode)
			creditsRequired := required.Mul(cost)

			csBal, ok := snapshot.Balances[cs.Code]
			if !ok {
				continue
			}
			if firstAttempt == nil {
				firstAttempt = &creditAttempt{balance: csBal, required: creditsRequired}
			}
			if IsAllowed(csBal, cs, creditsRequired) {
				return domain.CheckResult{Allowed: true, RequiredBalance: creditsRequired, Balance: csBal}, nil
			}
		}
	}

	if firstAttempt != nil {
		return domain.CheckResult{Allowed: false, RequiredBalance: firstAttempt.required, Balance: firstAttempt.balance}, nil
	}
	return domain.CheckResult{Allowed: false, RequiredBalance: required, Balance: bal}, nil
}

// IsAllowed is the single-balance decision, first match wins.
func IsAllowed(bal balancedomain.FeatureBalance, feature catalogdomain.Feature, required decimal.Decimal) bool {
	if feature.Kind == catalogdomain.FeatureBoolean {
		return true
	}
	if bal.Unlimited {
		return true
	}
	// A negative requirement is a refund or decrement, never blocked.
	if required.IsNegative() {
		return true
	}
	if bal.OverageAllowed {
		capacity, uncapped := bal.AvailableOverage()
		if uncapped {
			return true
		}
		return bal.Remaining.Add(capacity).GreaterThanOrEqual(required)
	}
	return bal.Remaining.GreaterThanOrEqual(required)
}
