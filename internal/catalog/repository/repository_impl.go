package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type repo struct {
	products     repository.Repository[domain.Product]
	features     repository.Repository[domain.Feature]
	prices       repository.Repository[domain.Price]
	entitlements repository.Repository[domain.Entitlement]
}

type Param struct {
	fx.In

	DB *gorm.DB
}

func Provide(p Param) domain.Repository {
	return &repo{
		products:     repository.ProvideStore[domain.Product](p.DB),
		features:     repository.ProvideStore[domain.Feature](p.DB),
		prices:       repository.ProvideStore[domain.Price](p.DB),
		entitlements: repository.ProvideStore[domain.Entitlement](p.DB),
	}
}

func (r *repo) FindProduct(ctx context.Context, orgID, productID snowflake.ID) (*domain.Product, error) {
	return r.products.FindOne(ctx, &domain.Product{ID: productID, OrgID: orgID})
}

func (r *repo) ListFeatures(ctx context.Context, orgID snowflake.ID) ([]domain.Feature, error) {
	rows, err := r.features.Find(ctx, &domain.Feature{OrgID: orgID, Active: true})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (r *repo) ListPrices(ctx context.Context, orgID, productID snowflake.ID) ([]domain.Price, error) {
	rows, err := r.prices.Find(ctx, &domain.Price{OrgID: orgID, ProductID: productID, Active: true})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (r *repo) ListEntitlements(ctx context.Context, orgID, productID snowflake.ID) ([]domain.Entitlement, error) {
	rows, err := r.entitlements.Find(ctx, &domain.Entitlement{OrgID: orgID, ProductID: productID})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func deref[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			out = append(out, *row)
		}
	}
	return out
}
