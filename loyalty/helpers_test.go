package loyalty_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func num(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// portalVolume is the admin portal's out-of-the-box volume table.
func portalVolume() []loyalty.VolumeCriterion {
	return []loyalty.VolumeCriterion{
		{Tier: loyalty.TierStandard, MinOrderCount: 50, MinTotalSales: num(5_000_000)},
		{Tier: loyalty.TierAdvance, MinOrderCount: 150, MinTotalSales: num(15_000_000)},
		{Tier: loyalty.TierElite, MinOrderCount: 300, MinTotalSales: num(30_000_000)},
		{Tier: loyalty.TierLegend, MinOrderCount: 500, MinTotalSales: num(50_000_000)},
	}
}

func portalPoints() []loyalty.PointsCriterion {
	return []loyalty.PointsCriterion{
		{Tier: loyalty.TierStandard, RequiredPoints: num(1200)},
		{Tier: loyalty.TierAdvance, RequiredPoints: num(3000)},
		{Tier: loyalty.TierElite, RequiredPoints: num(6000)},
		{Tier: loyalty.TierLegend, RequiredPoints: num(12000)},
	}
}

// portalDefinition mirrors the default program: 10 points per active day,
// five milestones, five consecutive bonuses, three monthly bonuses.
func portalDefinition() loyalty.BundleDefinition {
	return loyalty.BundleDefinition{
		PointsPerActiveDay: num(10),
		VolumeCriteria:     portalVolume(),
		PointsCriteria:     portalPoints(),
		Milestones: []loyalty.Milestone{
			{ThresholdDays: 30, BonusPoints: num(100), Enabled: true},
			{ThresholdDays: 90, BonusPoints: num(300), Enabled: true},
			{ThresholdDays: 180, BonusPoints: num(600), Enabled: true},
			{ThresholdDays: 365, BonusPoints: num(1200), Enabled: true},
			{ThresholdDays: 730, BonusPoints: num(2500), Enabled: true},
		},
		ConsecutiveBonuses: []loyalty.ConsecutiveBonus{
			{ThresholdDays: 7, BonusPoints: num(30), Enabled: true},
			{ThresholdDays: 30, BonusPoints: num(100), Enabled: true},
			{ThresholdDays: 90, BonusPoints: num(300), Enabled: true},
			{ThresholdDays: 180, BonusPoints: num(500), Enabled: true},
			{ThresholdDays: 365, BonusPoints: num(1000), Enabled: true},
		},
		MonthlyBonuses: []loyalty.MonthlyFrequencyBonus{
			{MinDaysPerMonth: num(10), BonusPoints: num(30), Enabled: true},
			{MinDaysPerMonth: num(15), BonusPoints: num(60), Enabled: true},
			{MinDaysPerMonth: num(20), BonusPoints: num(100), Enabled: true},
		},
	}
}

// bareDefinition has the portal's criteria and no bonuses at all.
func bareDefinition(pointsPerDay int64) loyalty.BundleDefinition {
	return loyalty.BundleDefinition{
		PointsPerActiveDay: num(pointsPerDay),
		VolumeCriteria:     portalVolume(),
		PointsCriteria:     portalPoints(),
	}
}

func mustBundle(t *testing.T, def loyalty.BundleDefinition) *loyalty.Bundle {
	t.Helper()
	b, err := loyalty.NewBundle(def)
	require.NoError(t, err)
	return b
}

// threeDayPattern is the portal's default hypothesis: 3 days a week,
// 5 orders a day, 15,000 per order (13 active days a month).
func threeDayPattern() loyalty.SimulationInput {
	return loyalty.SimulationInput{
		ActiveDaysPerWeek:  num(3),
		OrdersPerActiveDay: num(5),
		AverageOrderValue:  num(15000),
	}
}
