/*
Package loyalty provides the seller loyalty tier progression simulator.

PURPOSE:
  Predicts in which simulated month a seller would be promoted through the
  loyalty tiers, given a hypothetical steady-state ordering pattern. Two
  independently configured promotion rules run side by side:
  - Volume rule: monthly order count AND monthly sales volume
  - Points rule: accumulated points (base + milestone + consecutive + monthly)

KEY CONCEPTS IN THIS FILE (types.go):
  - Tier: ordered loyalty level, LIGHT (floor) through LEGEND
  - Criteria and bonus rows: the rule tables a Bundle is built from
  - SimulationInput: the constant ordering hypothesis
  - MonthSnapshot: one emitted month of the simulation

COMPONENTS (leaves first):
  Bundle (config.go)             Immutable, validated rule tables
  ComputeAccumulatedPoints       Points total and breakdown (points.go)
  ResolveByVolume/ByPoints       Highest qualifying tier (resolver.go)
  SimulationEngine               Month-by-month fold (engine.go)

DESIGN PRINCIPLES:
  1. Purity: no I/O, no shared state. Every call is independent.
  2. Precision: decimal.Decimal for points, rates and sales.
  3. Fail fast: configuration and input are validated before the loop.
  4. Monotonicity: tiers are granted, never revoked, within one run.

SEE ALSO:
  - factory/: JSON/YAML documents to Bundle
  - presets/: Default program tables and seller patterns
  - api/: HTTP surface
*/
package loyalty

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER - Totally ordered loyalty level
// =============================================================================

// Tier is a loyalty level. The zero value is TierLight, the floor granted to
// every seller.
type Tier int

const (
	TierLight Tier = iota
	TierStandard
	TierAdvance
	TierElite
	TierLegend
)

var tierNames = [...]string{"LIGHT", "STANDARD", "ADVANCE", "ELITE", "LEGEND"}

// PromotableTiers lists every tier with a qualifying criterion, lowest first.
// LIGHT has none.
var PromotableTiers = []Tier{TierStandard, TierAdvance, TierElite, TierLegend}

func (t Tier) String() string {
	if t.IsValid() {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// IsValid reports whether t is one of the five defined tiers.
func (t Tier) IsValid() bool { return t >= TierLight && t <= TierLegend }

// IsPromotable reports whether t can be reached through a criterion.
func (t Tier) IsPromotable() bool { return t > TierLight && t <= TierLegend }

// ParseTier resolves a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return TierLight, fmt.Errorf("unknown tier %q", s)
}

// MaxTier returns the higher of the given tiers.
func MaxTier(first Tier, rest ...Tier) Tier {
	highest := first
	for _, t := range rest {
		if t > highest {
			highest = t
		}
	}
	return highest
}

// MarshalJSON encodes the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tier must be a string: %w", err)
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText lets tiers be used as map keys and YAML scalars.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// RULE TABLE ROWS
// =============================================================================

// VolumeCriterion is the monthly volume/sales requirement for one tier.
// Both thresholds must be met.
type VolumeCriterion struct {
	Tier          Tier
	MinOrderCount int
	MinTotalSales decimal.Decimal
}

// PointsCriterion is the accumulated-points requirement for one tier.
type PointsCriterion struct {
	Tier           Tier
	RequiredPoints decimal.Decimal
}

// Milestone is a one-time reward keyed by cumulative active days,
// independent of whether the days were consecutive.
type Milestone struct {
	ThresholdDays int
	BonusPoints   decimal.Decimal
	Enabled       bool
}

// ConsecutiveBonus has the same shape as Milestone but only pays out under
// the unbroken, every-day ordering hypothesis.
type ConsecutiveBonus struct {
	ThresholdDays int
	BonusPoints   decimal.Decimal
	Enabled       bool
}

// MonthlyFrequencyBonus pays once per elapsed month when the steady-state
// active-days-per-month rate reaches MinDaysPerMonth.
type MonthlyFrequencyBonus struct {
	MinDaysPerMonth decimal.Decimal
	BonusPoints     decimal.Decimal
	Enabled         bool
}

// =============================================================================
// SIMULATION INPUT / OUTPUT
// =============================================================================

// SimulationInput is the constant ordering hypothesis. It does not change
// across simulated months.
type SimulationInput struct {
	ActiveDaysPerWeek  decimal.Decimal
	OrdersPerActiveDay decimal.Decimal
	AverageOrderValue  decimal.Decimal
	ConsecutivePattern bool
}

// UpgradeSource names the promotion path that caused a tier change.
type UpgradeSource string

const (
	SourceNone   UpgradeSource = "none"
	SourceVolume UpgradeSource = "volume"
	SourcePoints UpgradeSource = "points"
)

// PointsBreakdown splits an accumulated-points total into its four parts.
type PointsBreakdown struct {
	Base        decimal.Decimal
	Milestones  decimal.Decimal
	Consecutive decimal.Decimal
	Monthly     decimal.Decimal
}

// Total is the sum of all four parts.
func (b PointsBreakdown) Total() decimal.Decimal {
	return b.Base.Add(b.Milestones).Add(b.Consecutive).Add(b.Monthly)
}

// MonthSnapshot is one emitted month. MonthIndex is 1-based.
type MonthSnapshot struct {
	MonthIndex           int
	CumulativeActiveDays int
	CumulativePoints     decimal.Decimal
	Breakdown            PointsBreakdown
	MonthlyOrderCount    int
	MonthlySalesVolume   decimal.Decimal
	Tier                 Tier
	UpgradeSource        UpgradeSource
}

// Upgraded reports whether the tier changed in this month.
func (s MonthSnapshot) Upgraded() bool { return s.UpgradeSource != SourceNone }

// Upgrade is a snapshot reduced to the promotion it records.
type Upgrade struct {
	Tier         Tier
	MonthReached int
	Source       UpgradeSource
}
