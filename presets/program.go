/*
program.go - Pre-built program rule tables

PURPOSE:
  Provides the loyalty program tables the admin portal ships with, plus a
  couple of variants useful for what-if comparisons. Each preset is a
  loyalty.BundleDefinition so callers can patch a row before building.

AVAILABLE PROGRAMS:
  DefaultProgram:
    - 10 points per active day
    - Volume: STANDARD 50 orders / 500만 ... LEGEND 500 orders / 5000만
    - Points: STANDARD 1200 ... LEGEND 12000
    - Milestones at 30/90/180/365/730 cumulative active days
    - Consecutive bonuses at 7/30/90/180/365 days
    - Monthly bonuses at 10/15/20 active days per month

  BaseOnlyProgram:
    - DefaultProgram with every bonus row disabled
    - Isolates the per-day rate from the bonus tables

EXAMPLE:
  engine := &loyalty.SimulationEngine{Config: presets.DefaultProgram()}
  result, err := engine.Run(presets.DefaultInput())

SEE ALSO:
  - patterns.go: Canned seller ordering patterns
  - factory/bundle.go: Document form of these tables
*/
package presets

import (
	"github.com/shopspring/decimal"
	"github.com/warp/loyalty-engine/loyalty"
)

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// =============================================================================
// DEFAULT PROGRAM
// =============================================================================

// DefaultVolumeCriteria is the portal's initial volume table.
func DefaultVolumeCriteria() []loyalty.VolumeCriterion {
	return []loyalty.VolumeCriterion{
		{Tier: loyalty.TierStandard, MinOrderCount: 50, MinTotalSales: d(5_000_000)},
		{Tier: loyalty.TierAdvance, MinOrderCount: 150, MinTotalSales: d(15_000_000)},
		{Tier: loyalty.TierElite, MinOrderCount: 300, MinTotalSales: d(30_000_000)},
		{Tier: loyalty.TierLegend, MinOrderCount: 500, MinTotalSales: d(50_000_000)},
	}
}

// DefaultDiscountRates is the live program's discount percentage per tier.
// LIGHT sellers get none.
func DefaultDiscountRates() map[loyalty.Tier]decimal.Decimal {
	return map[loyalty.Tier]decimal.Decimal{
		loyalty.TierStandard: d(3),
		loyalty.TierAdvance:  d(5),
		loyalty.TierElite:    d(7),
		loyalty.TierLegend:   d(10),
	}
}

// DefaultDefinition returns a fresh copy of the default tables.
func DefaultDefinition() loyalty.BundleDefinition {
	return loyalty.BundleDefinition{
		PointsPerActiveDay: d(10),
		VolumeCriteria:     DefaultVolumeCriteria(),
		PointsCriteria: []loyalty.PointsCriterion{
			{Tier: loyalty.TierStandard, RequiredPoints: d(1200)},
			{Tier: loyalty.TierAdvance, RequiredPoints: d(3000)},
			{Tier: loyalty.TierElite, RequiredPoints: d(6000)},
			{Tier: loyalty.TierLegend, RequiredPoints: d(12000)},
		},
		Milestones: []loyalty.Milestone{
			{ThresholdDays: 30, BonusPoints: d(100), Enabled: true},
			{ThresholdDays: 90, BonusPoints: d(300), Enabled: true},
			{ThresholdDays: 180, BonusPoints: d(600), Enabled: true},
			{ThresholdDays: 365, BonusPoints: d(1200), Enabled: true},
			{ThresholdDays: 730, BonusPoints: d(2500), Enabled: true},
		},
		ConsecutiveBonuses: []loyalty.ConsecutiveBonus{
			{ThresholdDays: 7, BonusPoints: d(30), Enabled: true},
			{ThresholdDays: 30, BonusPoints: d(100), Enabled: true},
			{ThresholdDays: 90, BonusPoints: d(300), Enabled: true},
			{ThresholdDays: 180, BonusPoints: d(500), Enabled: true},
			{ThresholdDays: 365, BonusPoints: d(1000), Enabled: true},
		},
		MonthlyBonuses: []loyalty.MonthlyFrequencyBonus{
			{MinDaysPerMonth: d(10), BonusPoints: d(30), Enabled: true},
			{MinDaysPerMonth: d(15), BonusPoints: d(60), Enabled: true},
			{MinDaysPerMonth: d(20), BonusPoints: d(100), Enabled: true},
		},
	}
}

// DefaultProgram is the validated default bundle.
func DefaultProgram() *loyalty.Bundle {
	return loyalty.MustNewBundle(DefaultDefinition())
}

// =============================================================================
// VARIANTS
// =============================================================================

// BaseOnlyProgram keeps the default criteria and per-day rate but disables
// every bonus row.
func BaseOnlyProgram() *loyalty.Bundle {
	def := DefaultDefinition()
	for i := range def.Milestones {
		def.Milestones[i].Enabled = false
	}
	for i := range def.ConsecutiveBonuses {
		def.ConsecutiveBonuses[i].Enabled = false
	}
	for i := range def.MonthlyBonuses {
		def.MonthlyBonuses[i].Enabled = false
	}
	return loyalty.MustNewBundle(def)
}

// WithVolumeCriteria returns the default program with its volume table
// replaced, e.g. by the live criteria rows.
func WithVolumeCriteria(volume []loyalty.VolumeCriterion) (*loyalty.Bundle, error) {
	def := DefaultDefinition()
	def.VolumeCriteria = volume
	return loyalty.NewBundle(def)
}

// DefaultInput is the portal's initial hypothesis: 3 active days a week,
// 5 orders per active day, 15,000 per order, not consecutive.
func DefaultInput() loyalty.SimulationInput {
	return loyalty.SimulationInput{
		ActiveDaysPerWeek:  d(3),
		OrdersPerActiveDay: d(5),
		AverageOrderValue:  d(15000),
	}
}
