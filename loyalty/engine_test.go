package loyalty_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// WORKED EXAMPLES
// =============================================================================

func TestRun_DefaultProgramThreeDayPattern(t *testing.T) {
	// GIVEN: The portal defaults and its default hypothesis
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	// WHEN: Simulating
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: 13 active days a month, 65 orders, 975,000 in sales
	assert.True(t, result.AverageActiveDaysPerMonth.Equal(num(13)))
	assert.Equal(t, 65, result.MonthlyOrderCount)
	assert.True(t, result.MonthlySalesVolume.Equal(num(975_000)))

	// AND: Volume never qualifies, points climb every tier
	//   m7:  910 base + 400 milestones + 210 monthly = 1520
	//   m14: 1820 + 1000 + 420 = 3240
	//   m29: 3770 + 2200 + 870 = 6840
	//   m57: 7410 + 4700 + 1710 = 13820
	assert.Equal(t, []loyalty.Upgrade{
		{Tier: loyalty.TierStandard, MonthReached: 7, Source: loyalty.SourcePoints},
		{Tier: loyalty.TierAdvance, MonthReached: 14, Source: loyalty.SourcePoints},
		{Tier: loyalty.TierElite, MonthReached: 29, Source: loyalty.SourcePoints},
		{Tier: loyalty.TierLegend, MonthReached: 57, Source: loyalty.SourcePoints},
	}, result.Upgrades)

	// AND: The run settles 24 months after LEGEND
	assert.Len(t, result.Snapshots, 57+24)
	assert.Equal(t, loyalty.TierLegend, result.FinalTier())
}

func TestRun_SnapshotBreakdown(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// Month 3: 39 days, 390 base, 30-day milestone, 3 x 30 monthly.
	m3 := result.Snapshots[2]
	assert.Equal(t, 3, m3.MonthIndex)
	assert.Equal(t, 39, m3.CumulativeActiveDays)
	assert.True(t, m3.Breakdown.Base.Equal(num(390)))
	assert.True(t, m3.Breakdown.Milestones.Equal(num(100)))
	assert.True(t, m3.Breakdown.Consecutive.IsZero())
	assert.True(t, m3.Breakdown.Monthly.Equal(num(90)))
	assert.True(t, m3.CumulativePoints.Equal(num(580)))
	assert.Equal(t, loyalty.TierLight, m3.Tier)
	assert.Equal(t, loyalty.SourceNone, m3.UpgradeSource)
}

func TestRun_PointsThresholdCrossing(t *testing.T) {
	// GIVEN: 10 points a day, no bonuses, STANDARD at 1200 points
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, bareDefinition(10))}

	// WHEN: 13 active days a month
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: STANDARD arrives in month 10 (130 days = 1300), not month 9 (1170)
	assert.Equal(t, loyalty.TierLight, result.Snapshots[8].Tier)
	assert.Equal(t, loyalty.TierStandard, result.Snapshots[9].Tier)
	assert.Equal(t, loyalty.SourcePoints, result.Snapshots[9].UpgradeSource)

	month, ok := result.MonthReached(loyalty.TierStandard)
	assert.True(t, ok)
	assert.Equal(t, 10, month)
}

func TestRun_OneTimeMilestone(t *testing.T) {
	// GIVEN: Only a 30-day milestone worth 100 points
	def := bareDefinition(0)
	def.Milestones = []loyalty.Milestone{{ThresholdDays: 30, BonusPoints: num(100), Enabled: true}}
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, def), MaxMonths: 12}

	// WHEN
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: Paid from month 3 onwards, and only once
	assert.True(t, result.Snapshots[1].CumulativePoints.IsZero())
	for _, s := range result.Snapshots[2:] {
		assert.True(t, s.CumulativePoints.Equal(num(100)), "month %d", s.MonthIndex)
	}
}

func TestRun_DualConditionBlocksVolumePath(t *testing.T) {
	// 65 orders clear STANDARD's 50, but 975,000 in sales do not clear
	// 5,000,000. Points are switched off, so nothing ever happens.
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, bareDefinition(0))}

	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	assert.Len(t, result.Snapshots, loyalty.DefaultMaxMonths)
	assert.Empty(t, result.Upgrades)
	assert.Equal(t, loyalty.TierLight, result.FinalTier())
}

// =============================================================================
// SOURCE ATTRIBUTION
// =============================================================================

// easyVolume lets 65 orders / 975,000 reach exactly STANDARD by volume.
func easyVolume() []loyalty.VolumeCriterion {
	return []loyalty.VolumeCriterion{
		{Tier: loyalty.TierStandard, MinOrderCount: 1, MinTotalSales: num(1)},
		{Tier: loyalty.TierAdvance, MinOrderCount: 1000, MinTotalSales: num(1_000_000_000)},
		{Tier: loyalty.TierElite, MinOrderCount: 2000, MinTotalSales: num(2_000_000_000)},
		{Tier: loyalty.TierLegend, MinOrderCount: 3000, MinTotalSales: num(3_000_000_000)},
	}
}

func TestRun_TieGoesToVolume(t *testing.T) {
	// GIVEN: Both paths justify STANDARD in month 1
	def := bareDefinition(10)
	def.VolumeCriteria = easyVolume()
	def.PointsCriteria = []loyalty.PointsCriterion{
		{Tier: loyalty.TierStandard, RequiredPoints: num(0)},
		{Tier: loyalty.TierAdvance, RequiredPoints: num(100_000)},
		{Tier: loyalty.TierElite, RequiredPoints: num(200_000)},
		{Tier: loyalty.TierLegend, RequiredPoints: num(300_000)},
	}
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, def), MaxMonths: 3}

	// WHEN
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: Volume is credited
	require.NotEmpty(t, result.Upgrades)
	assert.Equal(t, loyalty.Upgrade{Tier: loyalty.TierStandard, MonthReached: 1, Source: loyalty.SourceVolume}, result.Upgrades[0])
}

func TestRun_HigherPointsTierIsCreditedToPoints(t *testing.T) {
	// GIVEN: Volume justifies STANDARD, points justify ADVANCE in month 1
	def := bareDefinition(10)
	def.VolumeCriteria = easyVolume()
	def.PointsCriteria = []loyalty.PointsCriterion{
		{Tier: loyalty.TierStandard, RequiredPoints: num(0)},
		{Tier: loyalty.TierAdvance, RequiredPoints: num(1)},
		{Tier: loyalty.TierElite, RequiredPoints: num(200_000)},
		{Tier: loyalty.TierLegend, RequiredPoints: num(300_000)},
	}
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, def), MaxMonths: 3}

	// WHEN
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: A single jump straight to ADVANCE, via points
	assert.Equal(t, []loyalty.Upgrade{
		{Tier: loyalty.TierAdvance, MonthReached: 1, Source: loyalty.SourcePoints},
	}, result.Upgrades)

	// AND: STANDARD is implied by the skip
	month, ok := result.MonthReached(loyalty.TierStandard)
	assert.True(t, ok)
	assert.Equal(t, 1, month)
}

// =============================================================================
// TERMINATION
// =============================================================================

func legendByVolume(t *testing.T) *loyalty.Bundle {
	def := bareDefinition(0)
	def.VolumeCriteria = []loyalty.VolumeCriterion{
		{Tier: loyalty.TierStandard, MinOrderCount: 1, MinTotalSales: num(1)},
		{Tier: loyalty.TierAdvance, MinOrderCount: 2, MinTotalSales: num(2)},
		{Tier: loyalty.TierElite, MinOrderCount: 3, MinTotalSales: num(3)},
		{Tier: loyalty.TierLegend, MinOrderCount: 4, MinTotalSales: num(4)},
	}
	return mustBundle(t, def)
}

func TestRun_StopsAfterSettlePeriod(t *testing.T) {
	// GIVEN: LEGEND by volume in month 1
	engine := &loyalty.SimulationEngine{Config: legendByVolume(t)}

	// WHEN
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	// THEN: Month 1 plus 24 settle months
	assert.Len(t, result.Snapshots, 25)
	assert.Equal(t, []loyalty.Upgrade{
		{Tier: loyalty.TierLegend, MonthReached: 1, Source: loyalty.SourceVolume},
	}, result.Upgrades)
}

func TestRun_CustomSettleAndHorizon(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: legendByVolume(t), SettleMonths: 5}
	result, err := engine.Run(threeDayPattern())
	require.NoError(t, err)
	assert.Len(t, result.Snapshots, 6)

	engine = &loyalty.SimulationEngine{Config: mustBundle(t, bareDefinition(0)), MaxMonths: 30}
	result, err = engine.Run(threeDayPattern())
	require.NoError(t, err)
	assert.Len(t, result.Snapshots, 30)
}

func TestRun_HorizonCapsRun(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	result, err := engine.Run(loyalty.SimulationInput{
		ActiveDaysPerWeek:  dec(0.5),
		OrdersPerActiveDay: num(1),
		AverageOrderValue:  num(1000),
	})
	require.NoError(t, err)

	assert.Len(t, result.Snapshots, loyalty.DefaultMaxMonths)
	for i, s := range result.Snapshots {
		assert.Equal(t, i+1, s.MonthIndex)
	}
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestRun_ZeroActivityStaysLight(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	result, err := engine.Run(loyalty.SimulationInput{
		ActiveDaysPerWeek:  num(0),
		OrdersPerActiveDay: num(5),
		AverageOrderValue:  num(15000),
		ConsecutivePattern: true,
	})
	require.NoError(t, err)

	assert.Len(t, result.Snapshots, loyalty.DefaultMaxMonths)
	for _, s := range result.Snapshots {
		assert.Equal(t, loyalty.TierLight, s.Tier)
		assert.Equal(t, 0, s.CumulativeActiveDays)
		assert.True(t, s.CumulativePoints.IsZero())
		assert.Equal(t, 0, s.MonthlyOrderCount)
		assert.True(t, s.MonthlySalesVolume.IsZero())
	}
	assert.Empty(t, result.Upgrades)
}

func TestRun_TierAndPointsNeverDecrease(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	for _, dpw := range []float64{0, 1, 2.5, 3, 5, 7} {
		for _, orders := range []int64{0, 1, 5, 40} {
			for _, value := range []int64{0, 15000, 250000} {
				for _, consecutive := range []bool{false, true} {
					result, err := engine.Run(loyalty.SimulationInput{
						ActiveDaysPerWeek:  dec(dpw),
						OrdersPerActiveDay: num(orders),
						AverageOrderValue:  num(value),
						ConsecutivePattern: consecutive,
					})
					require.NoError(t, err)
					require.NotEmpty(t, result.Snapshots)

					for i := 1; i < len(result.Snapshots); i++ {
						prev, cur := result.Snapshots[i-1], result.Snapshots[i]
						assert.GreaterOrEqual(t, int(cur.Tier), int(prev.Tier))
						assert.GreaterOrEqual(t, cur.CumulativeActiveDays, prev.CumulativeActiveDays)
						assert.True(t, cur.CumulativePoints.GreaterThanOrEqual(prev.CumulativePoints))
						assert.Equal(t, prev.MonthlyOrderCount, cur.MonthlyOrderCount)
						assert.Equal(t, cur.Tier != prev.Tier, cur.Upgraded())
					}
					assert.Equal(t, result.Snapshots[0].Tier != loyalty.TierLight, result.Snapshots[0].Upgraded())
				}
			}
		}
	}
}

func TestRun_MorePointsPerDayNeverDelays(t *testing.T) {
	// GIVEN: The same pattern under increasing point rates
	rates := []int64{5, 10, 20, 40}
	results := make([]*loyalty.SimulationResult, len(rates))
	for i, rate := range rates {
		def := portalDefinition()
		def.PointsPerActiveDay = num(rate)
		engine := &loyalty.SimulationEngine{Config: mustBundle(t, def)}
		r, err := engine.Run(threeDayPattern())
		require.NoError(t, err)
		results[i] = r
	}

	// THEN: Every tier is reached no later under a higher rate
	for _, tier := range loyalty.PromotableTiers {
		for i := 1; i < len(results); i++ {
			slowMonth, slowOK := results[i-1].MonthReached(tier)
			fastMonth, fastOK := results[i].MonthReached(tier)
			if slowOK {
				require.True(t, fastOK, "tier %s lost at rate %d", tier, rates[i])
				assert.LessOrEqual(t, fastMonth, slowMonth, "tier %s", tier)
			}
		}
	}
}

func TestRun_LargerBonusesNeverDelay(t *testing.T) {
	scale := func(v decimal.Decimal, factor int64) decimal.Decimal { return v.Mul(num(factor)) }
	tables := []struct {
		name  string
		apply func(def *loyalty.BundleDefinition, factor int64)
	}{
		{"milestones", func(def *loyalty.BundleDefinition, factor int64) {
			for i := range def.Milestones {
				def.Milestones[i].BonusPoints = scale(def.Milestones[i].BonusPoints, factor)
			}
		}},
		{"consecutive", func(def *loyalty.BundleDefinition, factor int64) {
			for i := range def.ConsecutiveBonuses {
				def.ConsecutiveBonuses[i].BonusPoints = scale(def.ConsecutiveBonuses[i].BonusPoints, factor)
			}
		}},
		{"monthly", func(def *loyalty.BundleDefinition, factor int64) {
			for i := range def.MonthlyBonuses {
				def.MonthlyBonuses[i].BonusPoints = scale(def.MonthlyBonuses[i].BonusPoints, factor)
			}
		}},
	}
	factors := []int64{1, 2, 4}

	// Consecutive bonuses only pay under the streak hypothesis.
	inputs := map[string]loyalty.SimulationInput{
		"plain":  threeDayPattern(),
		"streak": {ActiveDaysPerWeek: num(7), OrdersPerActiveDay: num(1), AverageOrderValue: num(10000), ConsecutivePattern: true},
	}

	for _, table := range tables {
		for inputName, input := range inputs {
			t.Run(table.name+"/"+inputName, func(t *testing.T) {
				// GIVEN: One bonus table scaled up, everything else fixed
				results := make([]*loyalty.SimulationResult, len(factors))
				for i, factor := range factors {
					def := portalDefinition()
					table.apply(&def, factor)
					r, err := (&loyalty.SimulationEngine{Config: mustBundle(t, def)}).Run(input)
					require.NoError(t, err)
					results[i] = r
				}

				// THEN: No tier arrives later under a larger bonus
				for _, tier := range loyalty.PromotableTiers {
					for i := 1; i < len(results); i++ {
						smallMonth, smallOK := results[i-1].MonthReached(tier)
						bigMonth, bigOK := results[i].MonthReached(tier)
						if smallOK {
							require.True(t, bigOK, "tier %s lost at x%d", tier, factors[i])
							assert.LessOrEqual(t, bigMonth, smallMonth, "tier %s at x%d", tier, factors[i])
						}
					}
				}
			})
		}
	}
}

func TestRun_ConsecutivePatternNeverDelays(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	plain, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	input := threeDayPattern()
	input.ConsecutivePattern = true
	streak, err := engine.Run(input)
	require.NoError(t, err)

	for _, tier := range loyalty.PromotableTiers {
		plainMonth, _ := plain.MonthReached(tier)
		streakMonth, ok := streak.MonthReached(tier)
		require.True(t, ok)
		assert.LessOrEqual(t, streakMonth, plainMonth, "tier %s", tier)
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}
	input := loyalty.SimulationInput{
		ActiveDaysPerWeek:  dec(4.5),
		OrdersPerActiveDay: dec(7.3),
		AverageOrderValue:  dec(23456.78),
		ConsecutivePattern: true,
	}

	first, err := engine.Run(input)
	require.NoError(t, err)
	second, err := engine.Run(input)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ConcurrentCallsShareEngine(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}
	want, err := engine.Run(threeDayPattern())
	require.NoError(t, err)

	done := make(chan *loyalty.SimulationResult, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			r, _ := engine.Run(threeDayPattern())
			done <- r
		}()
	}
	for i := 0; i < cap(done); i++ {
		got := <-done
		require.NotNil(t, got)
		assert.Equal(t, want.Upgrades, got.Upgrades)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestRun_RejectsInvalidInput(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	tests := []struct {
		name  string
		input loyalty.SimulationInput
		field string
	}{
		{"negative days", loyalty.SimulationInput{ActiveDaysPerWeek: num(-1)}, "active_days_per_week"},
		{"eight days", loyalty.SimulationInput{ActiveDaysPerWeek: num(8)}, "active_days_per_week"},
		{"negative orders", loyalty.SimulationInput{ActiveDaysPerWeek: num(3), OrdersPerActiveDay: num(-2)}, "orders_per_active_day"},
		{"negative value", loyalty.SimulationInput{ActiveDaysPerWeek: num(3), AverageOrderValue: num(-1)}, "average_order_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Run(tt.input)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, loyalty.ErrInvalidInput)

			var inputErr *loyalty.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
			assert.True(t, loyalty.IsClientError(err))
		})
	}
}

func TestRun_RejectsOrderCountBeyondIntRange(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	// GIVEN: 13 days a month at 1e20 orders a day
	input := threeDayPattern()
	input.OrdersPerActiveDay = decimal.New(1, 20)

	// WHEN
	result, err := engine.Run(input)

	// THEN: Rejected instead of wrapping around
	assert.Nil(t, result)
	assert.ErrorIs(t, err, loyalty.ErrInvalidInput)
	var inputErr *loyalty.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "orders_per_active_day", inputErr.Field)
}

func TestRun_LargeOrderCountIsExact(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	input := threeDayPattern()
	input.OrdersPerActiveDay = decimal.New(1, 15)
	result, err := engine.Run(input)
	require.NoError(t, err)

	assert.Equal(t, 13_000_000_000_000_000, result.MonthlyOrderCount)
	assert.True(t, result.MonthlySalesVolume.Equal(decimal.New(195, 18)))
	assert.Equal(t, loyalty.Upgrade{Tier: loyalty.TierLegend, MonthReached: 1, Source: loyalty.SourceVolume}, result.Upgrades[0])
}

func TestRun_SevenDaysIsAllowed(t *testing.T) {
	engine := &loyalty.SimulationEngine{Config: mustBundle(t, portalDefinition())}

	result, err := engine.Run(loyalty.SimulationInput{
		ActiveDaysPerWeek:  num(7),
		OrdersPerActiveDay: num(1),
		AverageOrderValue:  num(1),
	})
	require.NoError(t, err)
	// 7 * 52 / 12 = 30.333..., month 1 rounds to 30 days.
	assert.Equal(t, 30, result.Snapshots[0].CumulativeActiveDays)
}

func TestRun_RejectsBadHorizon(t *testing.T) {
	bundle := mustBundle(t, portalDefinition())

	_, err := (&loyalty.SimulationEngine{Config: bundle, MaxMonths: loyalty.HorizonLimit + 1}).Run(threeDayPattern())
	assert.ErrorIs(t, err, loyalty.ErrInvalidInput)

	_, err = (&loyalty.SimulationEngine{Config: bundle, SettleMonths: -1}).Run(threeDayPattern())
	assert.ErrorIs(t, err, loyalty.ErrInvalidInput)

	_, err = (&loyalty.SimulationEngine{}).Run(threeDayPattern())
	assert.ErrorIs(t, err, loyalty.ErrInvalidConfiguration)
}

func TestAverageActiveDaysPerMonth(t *testing.T) {
	assert.True(t, loyalty.AverageActiveDaysPerMonth(num(3)).Equal(num(13)))
	assert.True(t, loyalty.AverageActiveDaysPerMonth(num(0)).IsZero())
	assert.True(t, loyalty.AverageActiveDaysPerMonth(num(6)).Equal(decimal.NewFromInt(26)))
}
