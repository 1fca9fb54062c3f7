/*
Package store defines persistence for the live program tier criteria.

PURPOSE:
  The admin settings page edits one row per tier: the monthly volume
  thresholds, the discount rate sellers at that tier receive, a display
  description and an active flag. This package holds the record type, the
  CriteriaStore interface and the conversion of active rows into the
  loyalty engine's volume table.

  Simulation configurations are never persisted here. A simulation may
  read the live volume rows, nothing more.

KEY TYPES:
  CriteriaRecord: One live row (LIGHT included, with zero thresholds)
  CriteriaStore:  List / Get / Save / SaveAll / SeedDefaults

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for tests and --db=:memory: dev runs

EXAMPLE:
  records, err := s.List(ctx)
  if volume, ok := store.ActiveVolumeCriteria(records); ok {
      bundle, err = presets.WithVolumeCriteria(volume)
  }

SEE ALSO:
  - loyalty/describe.go: Description text
  - api/handlers.go: GET/PUT /api/tier-criteria
*/
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/presets"
)

// ErrCriteriaNotFound is returned by Get when a tier has no live row.
var ErrCriteriaNotFound = errors.New("tier criteria not found")

// CriteriaRecord is one row of the live tier criteria table.
type CriteriaRecord struct {
	Tier          loyalty.Tier
	MinOrderCount int
	MinTotalSales decimal.Decimal
	DiscountRate  decimal.Decimal // percent

	// Tier hold rules kept for the members screen; the simulator does not
	// read them.
	ConsecutiveMonthsForBonus *int
	BonusTierDurationMonths   int

	Description string
	IsActive    bool
	Version     int
	UpdatedAt   time.Time
}

// VolumeCriterion projects the row onto the engine's volume table.
func (r CriteriaRecord) VolumeCriterion() loyalty.VolumeCriterion {
	return loyalty.VolumeCriterion{
		Tier:          r.Tier,
		MinOrderCount: r.MinOrderCount,
		MinTotalSales: r.MinTotalSales,
	}
}

// GenerateDescription returns the row's display text.
func (r CriteriaRecord) GenerateDescription() string {
	return loyalty.DescribeVolumeCriterion(r.VolumeCriterion(), r.DiscountRate)
}

// RefreshDescription returns rec with its description regenerated when it
// is empty or when the thresholds or discount rate differ from prev. A
// client that edits the numbers and echoes the old text back gets text
// that matches the new numbers.
func RefreshDescription(prev *CriteriaRecord, rec CriteriaRecord) CriteriaRecord {
	if rec.Description == "" || (prev != nil && !sameTerms(*prev, rec)) {
		rec.Description = rec.GenerateDescription()
	}
	return rec
}

func sameTerms(a, b CriteriaRecord) bool {
	return a.MinOrderCount == b.MinOrderCount &&
		a.MinTotalSales.Equal(b.MinTotalSales) &&
		a.DiscountRate.Equal(b.DiscountRate)
}

// CriteriaStore persists live tier criteria.
type CriteriaStore interface {
	// List returns every row in tier order.
	List(ctx context.Context) ([]CriteriaRecord, error)

	// Get returns the row for tier, or ErrCriteriaNotFound.
	Get(ctx context.Context, tier loyalty.Tier) (*CriteriaRecord, error)

	// Save upserts one row and bumps its version. An empty Description is
	// regenerated.
	Save(ctx context.Context, rec CriteriaRecord) error

	// SaveAll upserts every row atomically.
	SaveAll(ctx context.Context, recs []CriteriaRecord) error

	// SeedDefaults inserts DefaultRecords for tiers that have no row yet.
	SeedDefaults(ctx context.Context) error
}

// =============================================================================
// DEFAULTS AND CONVERSION
// =============================================================================

// DefaultRecords is the table a fresh installation starts with.
func DefaultRecords() []CriteriaRecord {
	rates := presets.DefaultDiscountRates()
	recs := []CriteriaRecord{{
		Tier:          loyalty.TierLight,
		MinTotalSales: decimal.Zero,
		DiscountRate:  decimal.Zero,
		IsActive:      true,
	}}
	for _, vc := range presets.DefaultVolumeCriteria() {
		recs = append(recs, CriteriaRecord{
			Tier:                    vc.Tier,
			MinOrderCount:           vc.MinOrderCount,
			MinTotalSales:           vc.MinTotalSales,
			DiscountRate:            rates[vc.Tier],
			BonusTierDurationMonths: 1,
			IsActive:                true,
		})
	}
	for i := range recs {
		recs[i].Description = recs[i].GenerateDescription()
	}
	return recs
}

// ActiveVolumeCriteria returns the active promotable rows as a volume table.
// ok is false unless every promotable tier has an active row.
func ActiveVolumeCriteria(recs []CriteriaRecord) ([]loyalty.VolumeCriterion, bool) {
	var out []loyalty.VolumeCriterion
	for _, r := range recs {
		if r.IsActive && r.Tier.IsPromotable() {
			out = append(out, r.VolumeCriterion())
		}
	}
	return out, len(out) == len(loyalty.PromotableTiers)
}

// Validate checks a full replacement table before it is saved: no
// negatives, one row per tier, and the active rows must form a valid
// volume table.
func Validate(recs []CriteriaRecord) error {
	var errs []error
	seen := make(map[loyalty.Tier]bool, len(recs))
	for _, r := range recs {
		field := fmt.Sprintf("criteria[%s]", r.Tier)
		if !r.Tier.IsValid() {
			errs = append(errs, &loyalty.ConfigError{Field: field, Reason: "unknown tier"})
			continue
		}
		if seen[r.Tier] {
			errs = append(errs, &loyalty.ConfigError{Field: field, Reason: "duplicate row"})
		}
		seen[r.Tier] = true
		if r.DiscountRate.IsNegative() || r.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, &loyalty.ConfigError{Field: field + ".discount_rate", Reason: "must be between 0 and 100"})
		}
		if r.MinOrderCount < 0 || r.MinTotalSales.IsNegative() {
			errs = append(errs, &loyalty.ConfigError{Field: field, Reason: "thresholds must not be negative"})
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if volume, ok := ActiveVolumeCriteria(recs); ok {
		def := presets.DefaultDefinition()
		def.VolumeCriteria = volume
		if _, err := loyalty.NewBundle(def); err != nil {
			return err
		}
	}
	return nil
}
