package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tally/internal/balance/domain"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Feature{},
		&catalogdomain.Entitlement{},
		&domain.CustomerEntitlement{},
	))
	return db
}

func seedCustomerEntitlement(t *testing.T, db *gorm.DB, ceID, customerID, productID snowflake.ID, balance string) {
	t.Helper()

	featureID := ceID + 1000
	entID := ceID + 2000
	allowance := decimal.NewFromInt(100)

	require.NoError(t, db.Create(&catalogdomain.Feature{
		ID:     featureID,
		OrgID:  7,
		Code:   "api_calls",
		Name:   "api call",
		Kind:   catalogdomain.FeatureMetered,
		Active: true,
	}).Error)
	require.NoError(t, db.Create(&catalogdomain.Entitlement{
		ID:            entID,
		OrgID:         7,
		ProductID:     productID,
		FeatureID:     featureID,
		AllowanceType: catalogdomain.AllowanceFixed,
		Allowance:     &allowance,
	}).Error)
	require.NoError(t, db.Create(&domain.CustomerEntitlement{
		ID:              ceID,
		OrgID:           7,
		CustomerID:      customerID,
		EntitlementID:   entID,
		FeatureID:       featureID,
		Balance:         decimal.RequireFromString(balance),
		ProductQuantity: 1,
	}).Error)
}

func TestRepository_ListForCustomerPreloads(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(Param{DB: db})
	ctx := context.Background()

	seedCustomerEntitlement(t, db, 1, 50, 1, "40")
	seedCustomerEntitlement(t, db, 2, 51, 1, "10")

	rows, err := repo.ListForCustomer(ctx, 7, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	ce := rows[0]
	assert.True(t, ce.Balance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "api_calls", ce.Feature.Code)
	require.NotNil(t, ce.Entitlement.Allowance)
	assert.True(t, ce.Entitlement.Allowance.Equal(decimal.NewFromInt(100)))
}

func TestRepository_ListForCustomerProductFiltersByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(Param{DB: db})
	ctx := context.Background()

	seedCustomerEntitlement(t, db, 1, 50, 1, "40")
	seedCustomerEntitlement(t, db, 2, 50, 2, "10")

	rows, err := repo.ListForCustomerProduct(ctx, 7, 50, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Balance.Equal(decimal.NewFromInt(40)))

	rows, err = repo.ListForCustomerProduct(ctx, 7, 50, 99)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
