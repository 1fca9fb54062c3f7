package loyalty

import "github.com/shopspring/decimal"

// =============================================================================
// TIER RESOLVER - Highest tier each promotion path qualifies for
// =============================================================================

// ResolveByVolume returns the highest tier whose volume criterion is met by
// BOTH monthlyOrderCount >= MinOrderCount AND monthlySalesVolume >=
// MinTotalSales. Meeting one threshold alone does not qualify.
// ok is false when no promotable tier qualifies; callers fall back to the
// current tier.
func ResolveByVolume(cfg *Bundle, monthlyOrderCount int, monthlySalesVolume decimal.Decimal) (tier Tier, ok bool) {
	for i := len(cfg.volume) - 1; i >= 0; i-- {
		c := cfg.volume[i]
		if monthlyOrderCount >= c.MinOrderCount && monthlySalesVolume.GreaterThanOrEqual(c.MinTotalSales) {
			return c.Tier, true
		}
	}
	return TierLight, false
}

// ResolveByPoints returns the highest tier whose RequiredPoints is at most
// cumulativePoints.
func ResolveByPoints(cfg *Bundle, cumulativePoints decimal.Decimal) (tier Tier, ok bool) {
	for i := len(cfg.points) - 1; i >= 0; i-- {
		c := cfg.points[i]
		if c.RequiredPoints.LessThanOrEqual(cumulativePoints) {
			return c.Tier, true
		}
	}
	return TierLight, false
}

// NextVolumeCriterion returns the criterion of the tier right above current,
// if any. Used to show the gap to the next promotion.
func NextVolumeCriterion(cfg *Bundle, current Tier) (VolumeCriterion, bool) {
	for _, c := range cfg.volume {
		if c.Tier > current {
			return c, true
		}
	}
	return VolumeCriterion{}, false
}

// NextPointsCriterion is NextVolumeCriterion for the points table.
func NextPointsCriterion(cfg *Bundle, current Tier) (PointsCriterion, bool) {
	for _, c := range cfg.points {
		if c.Tier > current {
			return c, true
		}
	}
	return PointsCriterion{}, false
}
