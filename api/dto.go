/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the loyalty domain model from the external API contract:
  - snake_case field names
  - decimals rendered as JSON numbers
  - tiers rendered by name

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Simulation:
    SimulationRequest, SimulationResponse, MonthSnapshotDTO, UpgradeDTO

  Live criteria:
    CriteriaDTO, UpdateCriteriaRequest, CriteriaListResponse

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  h.validator.Struct (validation.go) before touching the domain. Range
  checks the engine already performs are repeated here so clients get
  field-level messages.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/bundle.go: BundleDoc / InputDoc
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loyalty-engine/factory"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store"
)

// =============================================================================
// SIMULATION
// =============================================================================

// SimulationRequest runs one simulation. Config defaults to the live
// program when omitted.
type SimulationRequest struct {
	Config       *factory.BundleDoc `json:"config,omitempty"`
	Input        factory.InputDoc   `json:"input"`
	MaxMonths    int                `json:"max_months,omitempty" validate:"gte=0,lte=1200"`
	SettleMonths int                `json:"settle_months,omitempty" validate:"gte=0,lte=1200"`
}

// Where the rule tables of a simulation came from.
const (
	ConfigSourceRequest      = "request"
	ConfigSourceLiveCriteria = "live_criteria"
	ConfigSourceDefault      = "default"
)

// SimulationResponse is the full result of one run.
type SimulationResponse struct {
	ConfigSource string           `json:"config_source"`
	Input        factory.InputDoc `json:"input"`

	AverageActiveDaysPerMonth float64 `json:"average_active_days_per_month"`
	MonthlyOrderCount         int     `json:"monthly_order_count"`
	MonthlySalesVolume        float64 `json:"monthly_sales_volume"`
	MonthlySalesDisplay       string  `json:"monthly_sales_display"`

	FinalTier    string         `json:"final_tier"`
	MonthReached map[string]int `json:"month_reached"`
	NextTier     *NextTierDTO   `json:"next_tier,omitempty"`

	Upgrades  []UpgradeDTO       `json:"upgrades"`
	Snapshots []MonthSnapshotDTO `json:"snapshots"`
}

// NextTierDTO is what the tier above the final one asks for.
type NextTierDTO struct {
	Tier           string   `json:"tier"`
	MinOrderCount  *int     `json:"min_order_count,omitempty"`
	MinTotalSales  *float64 `json:"min_total_sales,omitempty"`
	RequiredPoints *float64 `json:"required_points,omitempty"`
}

// UpgradeDTO is one promotion.
type UpgradeDTO struct {
	Tier         string `json:"tier"`
	MonthReached int    `json:"month_reached"`
	Source       string `json:"source"`
}

// MonthSnapshotDTO is one simulated month.
type MonthSnapshotDTO struct {
	Month                int                `json:"month"`
	CumulativeActiveDays int                `json:"cumulative_active_days"`
	CumulativePoints     float64            `json:"cumulative_points"`
	Breakdown            PointsBreakdownDTO `json:"breakdown"`
	MonthlyOrderCount    int                `json:"monthly_order_count"`
	MonthlySalesVolume   float64            `json:"monthly_sales_volume"`
	Tier                 string             `json:"tier"`
	UpgradeSource        string             `json:"upgrade_source"`
}

// PointsBreakdownDTO splits CumulativePoints.
type PointsBreakdownDTO struct {
	Base        float64 `json:"base"`
	Milestones  float64 `json:"milestones"`
	Consecutive float64 `json:"consecutive"`
	Monthly     float64 `json:"monthly"`
}

// NewSimulationResponse converts a result for the wire.
func NewSimulationResponse(result *loyalty.SimulationResult, bundle *loyalty.Bundle, source string) SimulationResponse {
	resp := SimulationResponse{
		ConfigSource:              source,
		Input:                     factory.InputToDoc(result.Input),
		AverageActiveDaysPerMonth: result.AverageActiveDaysPerMonth.Round(4).InexactFloat64(),
		MonthlyOrderCount:         result.MonthlyOrderCount,
		MonthlySalesVolume:        result.MonthlySalesVolume.InexactFloat64(),
		MonthlySalesDisplay:       loyalty.FormatSales(result.MonthlySalesVolume),
		FinalTier:                 result.FinalTier().String(),
		MonthReached:              make(map[string]int),
		Upgrades:                  make([]UpgradeDTO, 0, len(result.Upgrades)),
		Snapshots:                 make([]MonthSnapshotDTO, 0, len(result.Snapshots)),
	}

	for _, tier := range loyalty.PromotableTiers {
		if month, ok := result.MonthReached(tier); ok {
			resp.MonthReached[tier.String()] = month
		}
	}
	for _, u := range result.Upgrades {
		resp.Upgrades = append(resp.Upgrades, UpgradeDTO{
			Tier:         u.Tier.String(),
			MonthReached: u.MonthReached,
			Source:       string(u.Source),
		})
	}
	for _, s := range result.Snapshots {
		resp.Snapshots = append(resp.Snapshots, MonthSnapshotDTO{
			Month:                s.MonthIndex,
			CumulativeActiveDays: s.CumulativeActiveDays,
			CumulativePoints:     s.CumulativePoints.InexactFloat64(),
			Breakdown: PointsBreakdownDTO{
				Base:        s.Breakdown.Base.InexactFloat64(),
				Milestones:  s.Breakdown.Milestones.InexactFloat64(),
				Consecutive: s.Breakdown.Consecutive.InexactFloat64(),
				Monthly:     s.Breakdown.Monthly.InexactFloat64(),
			},
			MonthlyOrderCount:  s.MonthlyOrderCount,
			MonthlySalesVolume: s.MonthlySalesVolume.InexactFloat64(),
			Tier:               s.Tier.String(),
			UpgradeSource:      string(s.UpgradeSource),
		})
	}

	resp.NextTier = nextTier(bundle, result.FinalTier())
	return resp
}

func nextTier(bundle *loyalty.Bundle, current loyalty.Tier) *NextTierDTO {
	vol, volOK := loyalty.NextVolumeCriterion(bundle, current)
	pts, ptsOK := loyalty.NextPointsCriterion(bundle, current)
	if !volOK && !ptsOK {
		return nil
	}

	dto := &NextTierDTO{}
	if volOK {
		dto.Tier = vol.Tier.String()
		orders := vol.MinOrderCount
		sales := vol.MinTotalSales.InexactFloat64()
		dto.MinOrderCount, dto.MinTotalSales = &orders, &sales
	}
	if ptsOK {
		dto.Tier = pts.Tier.String()
		points := pts.RequiredPoints.InexactFloat64()
		dto.RequiredPoints = &points
	}
	return dto
}

// =============================================================================
// LIVE TIER CRITERIA
// =============================================================================

// CriteriaDTO is one live tier criteria row.
type CriteriaDTO struct {
	Tier                      string  `json:"tier" validate:"required,tier"`
	MinOrderCount             int     `json:"min_order_count" validate:"gte=0"`
	MinTotalSales             float64 `json:"min_total_sales" validate:"gte=0"`
	DiscountRate              float64 `json:"discount_rate" validate:"gte=0,lte=100"`
	ConsecutiveMonthsForBonus *int    `json:"consecutive_months_for_bonus" validate:"omitempty,gte=1"`
	BonusTierDurationMonths   int     `json:"bonus_tier_duration_months" validate:"gte=0"`
	Description               string  `json:"description" validate:"max=200"`
	IsActive                  bool    `json:"is_active"`
	Version                   int     `json:"version,omitempty"`
	UpdatedAt                 string  `json:"updated_at,omitempty"`
}

// UpdateCriteriaRequest replaces the live table.
type UpdateCriteriaRequest struct {
	Criteria []CriteriaDTO `json:"criteria" validate:"required,min=1,dive"`
}

// CriteriaListResponse wraps the live table.
type CriteriaListResponse struct {
	Criteria []CriteriaDTO `json:"criteria"`
}

func toCriteriaDTO(r store.CriteriaRecord) CriteriaDTO {
	dto := CriteriaDTO{
		Tier:                      r.Tier.String(),
		MinOrderCount:             r.MinOrderCount,
		MinTotalSales:             r.MinTotalSales.InexactFloat64(),
		DiscountRate:              r.DiscountRate.InexactFloat64(),
		ConsecutiveMonthsForBonus: r.ConsecutiveMonthsForBonus,
		BonusTierDurationMonths:   r.BonusTierDurationMonths,
		Description:               r.Description,
		IsActive:                  r.IsActive,
		Version:                   r.Version,
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// toCriteriaRecord assumes the DTO passed validation, so the tier parses.
func toCriteriaRecord(dto CriteriaDTO) store.CriteriaRecord {
	tier, _ := loyalty.ParseTier(dto.Tier)
	rec := store.CriteriaRecord{
		Tier:                      tier,
		MinOrderCount:             dto.MinOrderCount,
		MinTotalSales:             decimal.NewFromFloat(dto.MinTotalSales),
		DiscountRate:              decimal.NewFromFloat(dto.DiscountRate),
		ConsecutiveMonthsForBonus: dto.ConsecutiveMonthsForBonus,
		BonusTierDurationMonths:   dto.BonusTierDurationMonths,
		Description:               dto.Description,
		IsActive:                  dto.IsActive,
	}
	return rec
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Violations []string          `json:"violations,omitempty"`
}
