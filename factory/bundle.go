/*
Package factory provides document to Go conversion for program rule tables.

PURPOSE:
  Converts JSON or YAML program documents into a validated loyalty.Bundle,
  and ordering hypotheses into loyalty.SimulationInput. Program managers
  edit rule tables as documents; the factory builds the immutable Go
  values the engine runs on.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  points_per_active_day: 10
  volume_criteria:
    - {tier: STANDARD, min_order_count: 50,  min_total_sales: 5000000}
    - {tier: ADVANCE,  min_order_count: 150, min_total_sales: 15000000}
    - ...
  points_criteria:
    - {tier: STANDARD, required_points: 1200}
    - ...
  milestones:
    - {threshold_days: 30, bonus_points: 100}
  consecutive_bonuses:
    - {threshold_days: 7, bonus_points: 30, enabled: false}
  monthly_bonuses:
    - {min_days_per_month: 10, bonus_points: 30}

KEY FEATURES:
  - Strict decoding: unknown keys are rejected
  - "enabled" defaults to true when omitted
  - Every conversion failure is a loyalty.ErrInvalidConfiguration

USAGE:
  f := factory.NewBundleFactory()

  bundle, err := f.LoadBundleFile("program.yaml")
  bundle, err := f.ParseBundle(data, factory.FormatJSON)

  doc := f.ToDoc(bundle) // back to a document, e.g. for the API

SEE ALSO:
  - loyalty/config.go: Bundle validation
  - presets/program.go: The portal's default tables
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/loyalty-engine/loyalty"
	"gopkg.in/yaml.v3"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a Format from a file extension; anything that is not
// .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// BundleDoc is the document representation of a ConfigurationBundle.
type BundleDoc struct {
	PointsPerActiveDay float64              `json:"points_per_active_day" yaml:"points_per_active_day"`
	VolumeCriteria     []VolumeCriterionDoc `json:"volume_criteria" yaml:"volume_criteria"`
	PointsCriteria     []PointsCriterionDoc `json:"points_criteria" yaml:"points_criteria"`
	Milestones         []BonusDoc           `json:"milestones,omitempty" yaml:"milestones,omitempty"`
	ConsecutiveBonuses []BonusDoc           `json:"consecutive_bonuses,omitempty" yaml:"consecutive_bonuses,omitempty"`
	MonthlyBonuses     []MonthlyBonusDoc    `json:"monthly_bonuses,omitempty" yaml:"monthly_bonuses,omitempty"`
}

// VolumeCriterionDoc is one row of the volume table.
type VolumeCriterionDoc struct {
	Tier          string  `json:"tier" yaml:"tier"`
	MinOrderCount int     `json:"min_order_count" yaml:"min_order_count"`
	MinTotalSales float64 `json:"min_total_sales" yaml:"min_total_sales"`
}

// PointsCriterionDoc is one row of the points table.
type PointsCriterionDoc struct {
	Tier           string  `json:"tier" yaml:"tier"`
	RequiredPoints float64 `json:"required_points" yaml:"required_points"`
}

// BonusDoc is a milestone or consecutive-bonus row.
type BonusDoc struct {
	ThresholdDays int     `json:"threshold_days" yaml:"threshold_days"`
	BonusPoints   float64 `json:"bonus_points" yaml:"bonus_points"`
	Enabled       *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"` // Default true
}

// MonthlyBonusDoc is a monthly-frequency bonus row.
type MonthlyBonusDoc struct {
	MinDaysPerMonth float64 `json:"min_days_per_month" yaml:"min_days_per_month"`
	BonusPoints     float64 `json:"bonus_points" yaml:"bonus_points"`
	Enabled         *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"` // Default true
}

// =============================================================================
// BUNDLE FACTORY
// =============================================================================

// BundleFactory converts documents to bundles and back.
type BundleFactory struct{}

// NewBundleFactory creates a new bundle factory.
func NewBundleFactory() *BundleFactory {
	return &BundleFactory{}
}

// LoadBundleFile reads and converts a bundle document; the format follows
// the file extension.
func (f *BundleFactory) LoadBundleFile(path string) (*loyalty.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle file: %w", err)
	}
	return f.ParseBundle(data, FormatFromPath(path))
}

// ParseBundle decodes data and converts it to a validated Bundle.
func (f *BundleFactory) ParseBundle(data []byte, format Format) (*loyalty.Bundle, error) {
	var doc BundleDoc
	if err := Decode(data, format, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bundle %s: %w: %w", format, loyalty.ErrInvalidConfiguration, err)
	}
	return f.FromDoc(doc)
}

// FromDoc converts a BundleDoc to a validated Bundle. Tier names that do
// not parse are reported alongside every other violation.
func (f *BundleFactory) FromDoc(doc BundleDoc) (*loyalty.Bundle, error) {
	def, parseErr := f.DefinitionFromDoc(doc)
	b, err := loyalty.NewBundle(def)
	if parseErr != nil {
		return nil, errors.Join(parseErr, err)
	}
	return b, err
}

// DefinitionFromDoc converts a BundleDoc to an unvalidated definition, for
// callers that want to patch tables before building the Bundle.
func (f *BundleFactory) DefinitionFromDoc(doc BundleDoc) (loyalty.BundleDefinition, error) {
	var errs []error
	def := loyalty.BundleDefinition{
		PointsPerActiveDay: decimal.NewFromFloat(doc.PointsPerActiveDay),
	}

	for i, vc := range doc.VolumeCriteria {
		tier, err := loyalty.ParseTier(vc.Tier)
		if err != nil {
			errs = append(errs, &loyalty.ConfigError{Field: fmt.Sprintf("volume_criteria[%d].tier", i), Reason: err.Error()})
			continue
		}
		def.VolumeCriteria = append(def.VolumeCriteria, loyalty.VolumeCriterion{
			Tier:          tier,
			MinOrderCount: vc.MinOrderCount,
			MinTotalSales: decimal.NewFromFloat(vc.MinTotalSales),
		})
	}

	for i, pc := range doc.PointsCriteria {
		tier, err := loyalty.ParseTier(pc.Tier)
		if err != nil {
			errs = append(errs, &loyalty.ConfigError{Field: fmt.Sprintf("points_criteria[%d].tier", i), Reason: err.Error()})
			continue
		}
		def.PointsCriteria = append(def.PointsCriteria, loyalty.PointsCriterion{
			Tier:           tier,
			RequiredPoints: decimal.NewFromFloat(pc.RequiredPoints),
		})
	}

	for _, m := range doc.Milestones {
		def.Milestones = append(def.Milestones, loyalty.Milestone{
			ThresholdDays: m.ThresholdDays,
			BonusPoints:   decimal.NewFromFloat(m.BonusPoints),
			Enabled:       enabled(m.Enabled),
		})
	}
	for _, c := range doc.ConsecutiveBonuses {
		def.ConsecutiveBonuses = append(def.ConsecutiveBonuses, loyalty.ConsecutiveBonus{
			ThresholdDays: c.ThresholdDays,
			BonusPoints:   decimal.NewFromFloat(c.BonusPoints),
			Enabled:       enabled(c.Enabled),
		})
	}
	for _, m := range doc.MonthlyBonuses {
		def.MonthlyBonuses = append(def.MonthlyBonuses, loyalty.MonthlyFrequencyBonus{
			MinDaysPerMonth: decimal.NewFromFloat(m.MinDaysPerMonth),
			BonusPoints:     decimal.NewFromFloat(m.BonusPoints),
			Enabled:         enabled(m.Enabled),
		})
	}

	return def, errors.Join(errs...)
}

// ToDoc converts a Bundle back to its document form. Enabled is always
// written explicitly.
func (f *BundleFactory) ToDoc(b *loyalty.Bundle) BundleDoc {
	doc := BundleDoc{
		PointsPerActiveDay: b.PointsPerActiveDay().InexactFloat64(),
	}
	for _, vc := range b.VolumeCriteria() {
		doc.VolumeCriteria = append(doc.VolumeCriteria, VolumeCriterionDoc{
			Tier:          vc.Tier.String(),
			MinOrderCount: vc.MinOrderCount,
			MinTotalSales: vc.MinTotalSales.InexactFloat64(),
		})
	}
	for _, pc := range b.PointsCriteria() {
		doc.PointsCriteria = append(doc.PointsCriteria, PointsCriterionDoc{
			Tier:           pc.Tier.String(),
			RequiredPoints: pc.RequiredPoints.InexactFloat64(),
		})
	}
	for _, m := range b.Milestones() {
		doc.Milestones = append(doc.Milestones, BonusDoc{
			ThresholdDays: m.ThresholdDays,
			BonusPoints:   m.BonusPoints.InexactFloat64(),
			Enabled:       boolPtr(m.Enabled),
		})
	}
	for _, c := range b.ConsecutiveBonuses() {
		doc.ConsecutiveBonuses = append(doc.ConsecutiveBonuses, BonusDoc{
			ThresholdDays: c.ThresholdDays,
			BonusPoints:   c.BonusPoints.InexactFloat64(),
			Enabled:       boolPtr(c.Enabled),
		})
	}
	for _, m := range b.MonthlyFrequencyBonuses() {
		doc.MonthlyBonuses = append(doc.MonthlyBonuses, MonthlyBonusDoc{
			MinDaysPerMonth: m.MinDaysPerMonth.InexactFloat64(),
			BonusPoints:     m.BonusPoints.InexactFloat64(),
			Enabled:         boolPtr(m.Enabled),
		})
	}
	return doc
}

// Encode writes a document in the requested format.
func (f *BundleFactory) Encode(doc BundleDoc, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// =============================================================================
// DECODING HELPERS
// =============================================================================

// Decode strictly decodes a JSON or YAML document into out.
func Decode(data []byte, format Format, out any) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(out)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	default:
		return fmt.Errorf("unknown document format %q", format)
	}
}

func enabled(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func boolPtr(b bool) *bool { return &b }
