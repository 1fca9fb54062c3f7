/*
points.go - Accumulated points for a point in simulated time

PURPOSE:
  Turns elapsed simulated time into an accumulated-points total and a
  four-part breakdown. Pure: the result depends only on the arguments.

FORMULA:
  base        = cumulativeActiveDays * PointsPerActiveDay
  milestones  = sum of enabled Milestone bonuses with
                cumulativeActiveDays >= ThresholdDays
  consecutive = same step sum over ConsecutiveBonus, only when the
                consecutive hypothesis holds, otherwise 0
  monthly     = sum of enabled MonthlyFrequencyBonus.BonusPoints * monthsElapsed
                where averageActiveDaysPerMonth >= MinDaysPerMonth
  total       = base + milestones + consecutive + monthly

STEP FUNCTIONS, NOT RUNNING SUMS:
  Milestone and consecutive sums are recomputed from the absolute day
  count on every call. A bonus appears in the first month its threshold
  is met and in every month after, counted once.

  The monthly term is valued over the full elapsed horizon: the pattern
  is constant, so a qualifying rate has applied since month 1 and the
  bonus scales with monthsElapsed, not with months since qualifying.
  An incremental accumulation would under-count it.
*/
package loyalty

import "github.com/shopspring/decimal"

// PointsResult is the accumulated total with its breakdown.
type PointsResult struct {
	Total     decimal.Decimal
	Breakdown PointsBreakdown
}

// ComputeAccumulatedPoints values cumulativeActiveDays active days over
// monthsElapsed months under cfg. A zero threshold is always satisfied;
// disabled rows contribute nothing.
func ComputeAccumulatedPoints(
	cfg *Bundle,
	cumulativeActiveDays int,
	monthsElapsed int,
	averageActiveDaysPerMonth decimal.Decimal,
	consecutivePattern bool,
) PointsResult {
	breakdown := PointsBreakdown{
		Base:        decimal.NewFromInt(int64(cumulativeActiveDays)).Mul(cfg.pointsPerActiveDay),
		Milestones:  decimal.Zero,
		Consecutive: decimal.Zero,
		Monthly:     decimal.Zero,
	}

	for _, m := range cfg.milestones {
		if m.Enabled && cumulativeActiveDays >= m.ThresholdDays {
			breakdown.Milestones = breakdown.Milestones.Add(m.BonusPoints)
		}
	}

	if consecutivePattern {
		for _, c := range cfg.consecutive {
			if c.Enabled && cumulativeActiveDays >= c.ThresholdDays {
				breakdown.Consecutive = breakdown.Consecutive.Add(c.BonusPoints)
			}
		}
	}

	months := decimal.NewFromInt(int64(monthsElapsed))
	for _, m := range cfg.monthly {
		if m.Enabled && averageActiveDaysPerMonth.GreaterThanOrEqual(m.MinDaysPerMonth) {
			breakdown.Monthly = breakdown.Monthly.Add(m.BonusPoints.Mul(months))
		}
	}

	return PointsResult{
		Total:     breakdown.Total(),
		Breakdown: breakdown,
	}
}
