package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// BuildRequest identifies the customer product an invoice pass runs over.
// Options carry the prepaid quantities purchased for the upcoming period.
type BuildRequest struct {
	OrgID      snowflake.ID
	CustomerID snowflake.ID
	ProductID  snowflake.ID
	Anchor     time.Time
	Direction  Direction
	Options    []PurchasedOption
}

// Service builds invoice line items. BuildLineItems is the pure pipeline
// over an assembled snapshot; BuildInvoiceLineItems loads the snapshot from
// the catalog and balance stores first.
type Service interface {
	BuildLineItems(view CustomerProduct, anchor, now time.Time, direction Direction) ([]LineItem, error)
	BuildInvoiceLineItems(ctx context.Context, req BuildRequest) ([]LineItem, error)
}

var (
	ErrProductNotFound  = errors.New("product_not_found")
	ErrInvalidDirection = errors.New("invalid_direction")
)
