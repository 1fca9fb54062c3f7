/*
engine.go - Month-by-month tier progression simulation

PURPOSE:
  Orchestrates the bounded month loop. Each month advances simulated time,
  values the accumulated points, resolves both promotion paths, folds the
  result into the running tier, and emits an immutable MonthSnapshot.

PER-MONTH TRANSITION (month m, 1-indexed):
  1. avgDays    = activeDaysPerWeek * 52 / 12      (once, constant)
  2. activeDays = round(avgDays * m)
  3. points     = ComputeAccumulatedPoints(activeDays, m, avgDays, ...)
  4. orders     = round(avgDays * ordersPerActiveDay)   (constant)
  5. sales      = orders * averageOrderValue            (constant)
  6. byVolume   = ResolveByVolume(orders, sales)
  7. byPoints   = ResolveByPoints(points)
  8. newTier    = max(current, byVolume, byPoints)
  9. source     = none if unchanged; volume if byVolume == newTier;
                  otherwise points
  10. current   = newTier; emit snapshot

  On a tie (both paths justify the same new tier in the same month) the
  volume path is reported, because it is evaluated first.

TERMINATION:
  Stops after SettleMonths further months once LEGEND is first reached,
  or at MaxMonths, whichever comes first.

CONCURRENCY:
  Run keeps all state in locals. One SimulationEngine value may serve
  any number of concurrent Run calls.

EXAMPLE:
  engine := &loyalty.SimulationEngine{Config: bundle}
  result, err := engine.Run(loyalty.SimulationInput{
      ActiveDaysPerWeek:  decimal.NewFromInt(3),
      OrdersPerActiveDay: decimal.NewFromInt(5),
      AverageOrderValue:  decimal.NewFromInt(15000),
  })

  for _, u := range result.Upgrades {
      fmt.Printf("%s in month %d via %s\n", u.Tier, u.MonthReached, u.Source)
  }
*/
package loyalty

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxMonths is the simulation horizon cap.
	DefaultMaxMonths = 120

	// DefaultSettleMonths is how many further months are emitted after
	// LEGEND is first reached.
	DefaultSettleMonths = 24

	// HorizonLimit bounds MaxMonths.
	HorizonLimit = 1200

	maxActiveDaysPerWeek = 7
)

var (
	weeksPerYear  = decimal.NewFromInt(52)
	monthsPerYear = decimal.NewFromInt(12)

	// maxMonthlyOrders keeps MonthlyOrderCount representable as an int.
	maxMonthlyOrders = decimal.NewFromInt(math.MaxInt)
)

// SimulationEngine runs the tier progression simulation against Config.
// Zero MaxMonths / SettleMonths select the defaults.
type SimulationEngine struct {
	Config       *Bundle
	MaxMonths    int
	SettleMonths int
}

// SimulationResult is the complete, materialized output of one run.
type SimulationResult struct {
	Input SimulationInput

	// Constant under the steady-state hypothesis.
	AverageActiveDaysPerMonth decimal.Decimal
	MonthlyOrderCount         int
	MonthlySalesVolume        decimal.Decimal

	// One snapshot per simulated month, in increasing MonthIndex order.
	Snapshots []MonthSnapshot

	// Snapshots whose UpgradeSource is not none, reduced.
	Upgrades []Upgrade
}

// Run validates the engine settings and input, then simulates. It returns
// either a complete result or a validation error; never a partial result.
func (e *SimulationEngine) Run(input SimulationInput) (*SimulationResult, error) {
	if e.Config == nil {
		return nil, &ConfigError{Field: "config", Reason: "no configuration bundle"}
	}
	if err := e.validate(input); err != nil {
		return nil, err
	}

	maxMonths := e.MaxMonths
	if maxMonths == 0 {
		maxMonths = DefaultMaxMonths
	}
	settleMonths := e.SettleMonths
	if settleMonths == 0 {
		settleMonths = DefaultSettleMonths
	}

	avgDays := AverageActiveDaysPerMonth(input.ActiveDaysPerWeek)
	orders := roundedMonthlyOrders(input)
	monthlySales := orders.Mul(input.AverageOrderValue)
	monthlyOrders := int(orders.IntPart())

	// Both are constant, so the volume path resolves the same way every month.
	byVolume, volumeOK := ResolveByVolume(e.Config, monthlyOrders, monthlySales)

	result := &SimulationResult{
		Input:                     input,
		AverageActiveDaysPerMonth: avgDays,
		MonthlyOrderCount:         monthlyOrders,
		MonthlySalesVolume:        monthlySales,
		Snapshots:                 make([]MonthSnapshot, 0, maxMonths),
	}

	current := TierLight
	legendMonth := 0

	for month := 1; month <= maxMonths; month++ {
		activeDays := int(avgDays.Mul(decimal.NewFromInt(int64(month))).Round(0).IntPart())
		points := ComputeAccumulatedPoints(e.Config, activeDays, month, avgDays, input.ConsecutivePattern)
		byPoints, pointsOK := ResolveByPoints(e.Config, points.Total)

		newTier := current
		if volumeOK {
			newTier = MaxTier(newTier, byVolume)
		}
		if pointsOK {
			newTier = MaxTier(newTier, byPoints)
		}

		source := SourceNone
		if newTier != current {
			if volumeOK && byVolume == newTier {
				source = SourceVolume
			} else {
				source = SourcePoints
			}
		}
		current = newTier

		snap := MonthSnapshot{
			MonthIndex:           month,
			CumulativeActiveDays: activeDays,
			CumulativePoints:     points.Total,
			Breakdown:            points.Breakdown,
			MonthlyOrderCount:    monthlyOrders,
			MonthlySalesVolume:   monthlySales,
			Tier:                 current,
			UpgradeSource:        source,
		}
		result.Snapshots = append(result.Snapshots, snap)

		if current == TierLegend {
			if legendMonth == 0 {
				legendMonth = month
			}
			if month-legendMonth >= settleMonths {
				break
			}
		}
	}

	result.Upgrades = UpgradeSummary(result.Snapshots)
	return result, nil
}

// AverageActiveDaysPerMonth converts a weekly active-day rate to the
// steady-state monthly rate (52 weeks over 12 months).
func AverageActiveDaysPerMonth(activeDaysPerWeek decimal.Decimal) decimal.Decimal {
	return activeDaysPerWeek.Mul(weeksPerYear).Div(monthsPerYear)
}

// roundedMonthlyOrders is round(avgDays * ordersPerActiveDay), unbounded.
func roundedMonthlyOrders(input SimulationInput) decimal.Decimal {
	return AverageActiveDaysPerMonth(input.ActiveDaysPerWeek).Mul(input.OrdersPerActiveDay).Round(0)
}

func (e *SimulationEngine) validate(input SimulationInput) error {
	var errs []error
	bad := func(field string, value any, reason string) {
		errs = append(errs, &InputError{Field: field, Value: fmt.Sprint(value), Reason: reason})
	}

	if e.MaxMonths < 0 || e.MaxMonths > HorizonLimit {
		bad("max_months", e.MaxMonths, fmt.Sprintf("must be between 0 and %d", HorizonLimit))
	}
	if e.SettleMonths < 0 {
		bad("settle_months", e.SettleMonths, "must not be negative")
	}
	if input.ActiveDaysPerWeek.IsNegative() {
		bad("active_days_per_week", input.ActiveDaysPerWeek, "must not be negative")
	}
	if input.ActiveDaysPerWeek.GreaterThan(decimal.NewFromInt(maxActiveDaysPerWeek)) {
		bad("active_days_per_week", input.ActiveDaysPerWeek, "a week has 7 days")
	}
	if input.OrdersPerActiveDay.IsNegative() {
		bad("orders_per_active_day", input.OrdersPerActiveDay, "must not be negative")
	} else if roundedMonthlyOrders(input).GreaterThan(maxMonthlyOrders) {
		bad("orders_per_active_day", input.OrdersPerActiveDay, "monthly order count is out of range")
	}
	if input.AverageOrderValue.IsNegative() {
		bad("average_order_value", input.AverageOrderValue, "must not be negative")
	}

	return errors.Join(errs...)
}

// =============================================================================
// RESULT HELPERS
// =============================================================================

// FinalTier is the tier held in the last emitted month.
func (r *SimulationResult) FinalTier() Tier {
	if len(r.Snapshots) == 0 {
		return TierLight
	}
	return r.Snapshots[len(r.Snapshots)-1].Tier
}

// MonthReached returns the first month in which tier (or a higher tier) was
// held. Tiers can be skipped, so a tier with no Upgrade entry of its own may
// still report the month a higher tier arrived.
func (r *SimulationResult) MonthReached(tier Tier) (int, bool) {
	for _, s := range r.Snapshots {
		if s.Tier >= tier {
			return s.MonthIndex, true
		}
	}
	return 0, false
}

// UpgradeSummary reduces snapshots to their upgrade events.
func UpgradeSummary(snapshots []MonthSnapshot) []Upgrade {
	var out []Upgrade
	for _, s := range snapshots {
		if s.Upgraded() {
			out = append(out, Upgrade{Tier: s.Tier, MonthReached: s.MonthIndex, Source: s.UpgradeSource})
		}
	}
	return out
}
