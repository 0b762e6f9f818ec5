package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository is the read-only catalog store collaborator. The engine never
// writes catalog rows.
type Repository interface {
	FindProduct(ctx context.Context, orgID, productID snowflake.ID) (*Product, error)
	ListFeatures(ctx context.Context, orgID snowflake.ID) ([]Feature, error)
	ListPrices(ctx context.Context, orgID, productID snowflake.ID) ([]Price, error)
	ListEntitlements(ctx context.Context, orgID, productID snowflake.ID) ([]Entitlement, error)
}
