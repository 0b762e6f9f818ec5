// Package domain defines the feature admission check contract.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	balancedomain "github.com/smallbiznis/tally/internal/balance/domain"
)

// CheckResult reports an admission decision together with the balance it
// was decided against. When a credit system satisfied the request the
// balance and required quantity are in credit units.
type CheckResult struct {
	Allowed         bool
	RequiredBalance decimal.Decimal
	Balance         balancedomain.FeatureBalance
}

// Service answers "may this customer use this much of this feature" from an
// in-memory snapshot, with no network or database call on the decision
// path.
type Service interface {
	IsFeatureAllowed(ctx context.Context, orgID, customerID snowflake.ID, featureCode string, required decimal.Decimal, entityID *string) (CheckResult, error)
}

// ErrFeatureNotFound is a caller-contract error: the feature id is not in
// the customer's balances. Distinct from a not-allowed result.
var ErrFeatureNotFound = errors.New("feature_not_found")
