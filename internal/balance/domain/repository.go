package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository is the balance store collaborator. Reads return full snapshots
// with the entitlement and feature preloaded; acquiring them under a
// consistent transaction is the caller's concern.
type Repository interface {
	ListForCustomer(ctx context.Context, orgID, customerID snowflake.ID) ([]CustomerEntitlement, error)
	ListForCustomerProduct(ctx context.Context, orgID, customerID, productID snowflake.ID) ([]CustomerEntitlement, error)
}
