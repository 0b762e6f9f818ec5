package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/balance/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

type Param struct {
	fx.In

	DB *gorm.DB
}

func Provide(p Param) domain.Repository {
	return &repo{db: p.DB}
}

func (r *repo) ListForCustomer(ctx context.Context, orgID, customerID snowflake.ID) ([]domain.CustomerEntitlement, error) {
	var rows []domain.CustomerEntitlement
	err := r.db.WithContext(ctx).
		Preload("Entitlement").
		Preload("Feature").
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListForCustomerProduct(ctx context.Context, orgID, customerID, productID snowflake.ID) ([]domain.CustomerEntitlement, error) {
	var rows []domain.CustomerEntitlement
	err := r.db.WithContext(ctx).
		Preload("Entitlement").
		Preload("Feature").
		Joins("JOIN entitlements ON entitlements.id = customer_entitlements.entitlement_id").
		Where("customer_entitlements.org_id = ? AND customer_entitlements.customer_id = ? AND entitlements.product_id = ?",
			orgID, customerID, productID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
