/*
config.go - ConfigurationBundle: the immutable rule tables

PURPOSE:
  Holds every tunable table the simulator reads: volume criteria, points
  criteria, milestone / consecutive / monthly bonuses and the per-day
  point rate. A Bundle is built once through NewBundle, validated, and
  never mutated afterwards. Accessors hand out copies.

VALIDATION (fails with ErrInvalidConfiguration):
  - Each criteria table holds exactly one row per promotable tier
    (STANDARD..LEGEND); LIGHT has no criterion.
  - Volume: MinOrderCount and MinTotalSales strictly increase with tier.
  - Points: RequiredPoints strictly increases with tier.
  - No negative threshold, bonus, or point rate anywhere.

  Bonus tables are independent step functions, so their thresholds are
  not required to be ordered.

EXAMPLE:
  bundle, err := loyalty.NewBundle(loyalty.BundleDefinition{
      PointsPerActiveDay: decimal.NewFromInt(10),
      VolumeCriteria:     volume,
      PointsCriteria:     points,
  })

SEE ALSO:
  - factory/bundle.go: Document -> BundleDefinition
  - presets/program.go: The portal's default tables
*/
package loyalty

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BundleDefinition is the mutable construction input for NewBundle.
// Rows may be given in any order; criteria are sorted by tier.
type BundleDefinition struct {
	PointsPerActiveDay decimal.Decimal
	VolumeCriteria     []VolumeCriterion
	PointsCriteria     []PointsCriterion
	Milestones         []Milestone
	ConsecutiveBonuses []ConsecutiveBonus
	MonthlyBonuses     []MonthlyFrequencyBonus
}

// Bundle is the validated, immutable ConfigurationBundle. It is safe to
// share between goroutines.
type Bundle struct {
	pointsPerActiveDay decimal.Decimal
	volume             []VolumeCriterion // ascending tier order
	points             []PointsCriterion // ascending tier order
	milestones         []Milestone
	consecutive        []ConsecutiveBonus
	monthly            []MonthlyFrequencyBonus
}

// NewBundle copies and validates def.
func NewBundle(def BundleDefinition) (*Bundle, error) {
	b := &Bundle{
		pointsPerActiveDay: def.PointsPerActiveDay,
		volume:             append([]VolumeCriterion(nil), def.VolumeCriteria...),
		points:             append([]PointsCriterion(nil), def.PointsCriteria...),
		milestones:         append([]Milestone(nil), def.Milestones...),
		consecutive:        append([]ConsecutiveBonus(nil), def.ConsecutiveBonuses...),
		monthly:            append([]MonthlyFrequencyBonus(nil), def.MonthlyBonuses...),
	}
	sort.SliceStable(b.volume, func(i, j int) bool { return b.volume[i].Tier < b.volume[j].Tier })
	sort.SliceStable(b.points, func(i, j int) bool { return b.points[i].Tier < b.points[j].Tier })

	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// MustNewBundle is NewBundle for static tables known to be valid.
func MustNewBundle(def BundleDefinition) *Bundle {
	b, err := NewBundle(def)
	if err != nil {
		panic(err)
	}
	return b
}

// Definition returns a copy of the tables, suitable for editing and
// passing back to NewBundle.
func (b *Bundle) Definition() BundleDefinition {
	return BundleDefinition{
		PointsPerActiveDay: b.pointsPerActiveDay,
		VolumeCriteria:     b.VolumeCriteria(),
		PointsCriteria:     b.PointsCriteria(),
		Milestones:         b.Milestones(),
		ConsecutiveBonuses: b.ConsecutiveBonuses(),
		MonthlyBonuses:     b.MonthlyFrequencyBonuses(),
	}
}

func (b *Bundle) PointsPerActiveDay() decimal.Decimal { return b.pointsPerActiveDay }

func (b *Bundle) VolumeCriteria() []VolumeCriterion {
	return append([]VolumeCriterion(nil), b.volume...)
}

func (b *Bundle) PointsCriteria() []PointsCriterion {
	return append([]PointsCriterion(nil), b.points...)
}

func (b *Bundle) Milestones() []Milestone {
	return append([]Milestone(nil), b.milestones...)
}

func (b *Bundle) ConsecutiveBonuses() []ConsecutiveBonus {
	return append([]ConsecutiveBonus(nil), b.consecutive...)
}

func (b *Bundle) MonthlyFrequencyBonuses() []MonthlyFrequencyBonus {
	return append([]MonthlyFrequencyBonus(nil), b.monthly...)
}

// =============================================================================
// VALIDATION
// =============================================================================

func (b *Bundle) validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if b.pointsPerActiveDay.IsNegative() {
		bad("points_per_active_day", "must not be negative, got %s", b.pointsPerActiveDay)
	}

	volumeTiers := make([]Tier, len(b.volume))
	for i, c := range b.volume {
		field := fmt.Sprintf("volume_criteria[%s]", c.Tier)
		volumeTiers[i] = c.Tier
		if c.MinOrderCount < 0 {
			bad(field+".min_order_count", "must not be negative, got %d", c.MinOrderCount)
		}
		if c.MinTotalSales.IsNegative() {
			bad(field+".min_total_sales", "must not be negative, got %s", c.MinTotalSales)
		}
		if i == 0 || c.Tier == b.volume[i-1].Tier {
			continue
		}
		prev := b.volume[i-1]
		if c.MinOrderCount <= prev.MinOrderCount {
			bad(field+".min_order_count", "must exceed %s (%d), got %d", prev.Tier, prev.MinOrderCount, c.MinOrderCount)
		}
		if c.MinTotalSales.LessThanOrEqual(prev.MinTotalSales) {
			bad(field+".min_total_sales", "must exceed %s (%s), got %s", prev.Tier, prev.MinTotalSales, c.MinTotalSales)
		}
	}
	errs = append(errs, checkTierCoverage("volume_criteria", volumeTiers)...)

	pointsTiers := make([]Tier, len(b.points))
	for i, c := range b.points {
		field := fmt.Sprintf("points_criteria[%s]", c.Tier)
		pointsTiers[i] = c.Tier
		if c.RequiredPoints.IsNegative() {
			bad(field+".required_points", "must not be negative, got %s", c.RequiredPoints)
		}
		if i == 0 || c.Tier == b.points[i-1].Tier {
			continue
		}
		prev := b.points[i-1]
		if c.RequiredPoints.LessThanOrEqual(prev.RequiredPoints) {
			bad(field+".required_points", "must exceed %s (%s), got %s", prev.Tier, prev.RequiredPoints, c.RequiredPoints)
		}
	}
	errs = append(errs, checkTierCoverage("points_criteria", pointsTiers)...)

	for i, m := range b.milestones {
		errs = append(errs, checkBonus(fmt.Sprintf("milestones[%d]", i), m.ThresholdDays, m.BonusPoints)...)
	}
	for i, c := range b.consecutive {
		errs = append(errs, checkBonus(fmt.Sprintf("consecutive_bonuses[%d]", i), c.ThresholdDays, c.BonusPoints)...)
	}
	for i, m := range b.monthly {
		field := fmt.Sprintf("monthly_bonuses[%d]", i)
		if m.MinDaysPerMonth.IsNegative() {
			bad(field+".min_days_per_month", "must not be negative, got %s", m.MinDaysPerMonth)
		}
		if m.BonusPoints.IsNegative() {
			bad(field+".bonus_points", "must not be negative, got %s", m.BonusPoints)
		}
	}

	return errors.Join(errs...)
}

// checkTierCoverage requires exactly one row per promotable tier.
func checkTierCoverage(table string, tiers []Tier) []error {
	var errs []error
	seen := make(map[Tier]int, len(tiers))
	for _, t := range tiers {
		if !t.IsPromotable() {
			errs = append(errs, &ConfigError{Field: table, Reason: fmt.Sprintf("tier %s cannot carry a criterion", t)})
			continue
		}
		seen[t]++
	}
	for _, t := range PromotableTiers {
		switch n := seen[t]; {
		case n == 0:
			errs = append(errs, &ConfigError{Field: table, Reason: fmt.Sprintf("missing row for %s", t)})
		case n > 1:
			errs = append(errs, &ConfigError{Field: table, Reason: fmt.Sprintf("%d rows for %s", n, t)})
		}
	}
	return errs
}

func checkBonus(field string, thresholdDays int, bonus decimal.Decimal) []error {
	var errs []error
	if thresholdDays < 0 {
		errs = append(errs, &ConfigError{Field: field + ".threshold_days", Reason: fmt.Sprintf("must not be negative, got %d", thresholdDays)})
	}
	if bonus.IsNegative() {
		errs = append(errs, &ConfigError{Field: field + ".bonus_points", Reason: fmt.Sprintf("must not be negative, got %s", bonus)})
	}
	return errs
}
