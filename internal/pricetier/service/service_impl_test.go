package service

import (
	"testing"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/tally/internal/catalog/domain"
	"github.com/smallbiznis/tally/internal/pricetier/domain"
	"github.com/smallbiznis/tally/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func newTestService() domain.Service {
	return NewService(ServiceParam{Log: zap.NewNop()})
}

func dec(s string) decimal.Decimal { return money.MustParse(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func twoTiers(boundary, lowAmount, highAmount string) catalogdomain.UsageTiers {
	return catalogdomain.UsageTiers{
		{To: decPtr(boundary), Amount: dec(lowAmount)},
		{To: nil, Amount: dec(highAmount)},
	}
}

func TestCalculate_GraduatedVsVolume(t *testing.T) {
	svc := newTestService()
	tiers := twoTiers("100", "1.00", "0.50")
	usage := dec("150")

	graduated, err := svc.Calculate(tiers, catalogdomain.TierGraduated, usage, domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, graduated.Equal(dec("125")), "graduated = %s", graduated)

	volume, err := svc.Calculate(tiers, catalogdomain.TierVolume, usage, domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, volume.Equal(dec("75")), "volume = %s", volume)
}

func TestCalculate_VolumeBoundaryInclusive(t *testing.T) {
	svc := newTestService()
	tiers := twoTiers("100", "1.00", "0.50")

	// Usage exactly on the boundary bills at the lower tier.
	got, err := svc.Calculate(tiers, catalogdomain.TierVolume, dec("100"), domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("100")), "at boundary = %s", got)

	got, err = svc.Calculate(tiers, catalogdomain.TierVolume, dec("101"), domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("50.5")), "past boundary = %s", got)
}

func TestCalculate_VolumeAllowancePushesBand(t *testing.T) {
	svc := newTestService()
	tiers := catalogdomain.UsageTiers{
		{To: decPtr("100"), Amount: dec("1.00")},
		{To: decPtr("500"), Amount: dec("0.80")},
		{To: nil, Amount: dec("0.50")},
	}

	// 90 on its own sits in the first band.
	got, err := svc.Calculate(tiers, catalogdomain.TierVolume, dec("90"), domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("90")))

	// A free bucket of 50 pushes the match to the second band; the billed
	// quantity stays 90.
	got, err = svc.Calculate(tiers, catalogdomain.TierVolume, dec("90"), domain.CalcOptions{
		VolumeAllowance: decPtr("50"),
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("72")), "with allowance = %s", got)
}

func TestCalculate_BillingUnits(t *testing.T) {
	svc := newTestService()
	// $10 per block of 1000 tokens.
	tiers := catalogdomain.UsageTiers{{To: nil, Amount: dec("10")}}

	got, err := svc.Calculate(tiers, catalogdomain.TierGraduated, dec("1"), domain.CalcOptions{
		BillingUnits: dec("1000"),
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("10")), "partial block bills whole: %s", got)

	got, err = svc.Calculate(tiers, catalogdomain.TierGraduated, dec("2500"), domain.CalcOptions{
		BillingUnits: dec("1000"),
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("30")), "2500 tokens = 3 blocks: %s", got)
}

func TestCalculate_NegativeUsage(t *testing.T) {
	svc := newTestService()
	tiers := twoTiers("100", "1.00", "0.50")

	got, err := svc.Calculate(tiers, catalogdomain.TierGraduated, dec("-150"), domain.CalcOptions{
		AllowNegative: true,
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("-125")), "refund = %s", got)

	got, err = svc.Calculate(tiers, catalogdomain.TierGraduated, dec("-150"), domain.CalcOptions{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestCalculate_MissingTiers(t *testing.T) {
	svc := newTestService()

	_, err := svc.Calculate(nil, catalogdomain.TierGraduated, dec("10"), domain.CalcOptions{})
	assert.ErrorIs(t, err, domain.ErrMissingUsageTiers)
}

func TestCalculate_InvalidTierOrder(t *testing.T) {
	svc := newTestService()
	tiers := catalogdomain.UsageTiers{
		{To: decPtr("100"), Amount: dec("1.00")},
		{To: decPtr("50"), Amount: dec("0.50")},
	}

	_, err := svc.Calculate(tiers, catalogdomain.TierGraduated, dec("10"), domain.CalcOptions{})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidUsageTiers)
}

func TestCalculate_UnknownBehavior(t *testing.T) {
	svc := newTestService()
	tiers := twoTiers("100", "1.00", "0.50")

	_, err := svc.Calculate(tiers, catalogdomain.TierBehavior("stepped"), dec("10"), domain.CalcOptions{})
	assert.ErrorIs(t, err, domain.ErrUnknownTierBehavior)
}

func TestCalculate_GraduatedMonotone(t *testing.T) {
	svc := newTestService()
	tiers := catalogdomain.UsageTiers{
		{To: decPtr("100"), Amount: dec("1.00")},
		{To: decPtr("1000"), Amount: dec("0.75")},
		{To: nil, Amount: dec("0.50")},
	}

	rapid.Check(t, func(t *rapid.T) {
		u1 := decimal.NewFromFloat(rapid.Float64Range(0, 1e6).Draw(t, "u1"))
		u2 := decimal.NewFromFloat(rapid.Float64Range(0, 1e6).Draw(t, "u2"))
		if u1.GreaterThan(u2) {
			u1, u2 = u2, u1
		}

		p1, err := svc.Calculate(tiers, catalogdomain.TierGraduated, u1, domain.CalcOptions{})
		require.NoError(t, err)
		p2, err := svc.Calculate(tiers, catalogdomain.TierGraduated, u2, domain.CalcOptions{})
		require.NoError(t, err)

		if p1.GreaterThan(p2) {
			t.Fatalf("graduated price not monotone: price(%s)=%s > price(%s)=%s", u1, p1, u2, p2)
		}
	})
}
