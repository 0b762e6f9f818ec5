// Package repository provides the generic gorm-backed store the domain
// repositories compose.
package repository

import (
	"context"

	"github.com/smallbiznis/tally/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a typed store over one gorm model. Query arguments are
// partially-filled model values used as equality filters.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
}
