package presets

import "github.com/warp/loyalty-engine/loyalty"

// SellerPattern is a named, canned ordering hypothesis.
type SellerPattern struct {
	ID          string
	Name        string
	Description string
	Category    string // "casual", "regular", "power"
	Input       loyalty.SimulationInput
}

// =============================================================================
// SELLER PATTERNS
// =============================================================================

// Patterns returns every canned seller pattern, in display order.
func Patterns() []SellerPattern {
	return []SellerPattern{
		{
			ID:          "casual-three-day",
			Name:        "Casual 3 days/week",
			Description: "The portal default: 3 active days a week, 5 orders a day at 15,000. Volume never qualifies, points carry every promotion.",
			Category:    "casual",
			Input:       DefaultInput(),
		},
		{
			ID:          "weekend-only",
			Name:        "Weekend seller",
			Description: "2 active days a week, 8 orders a day at 30,000. Below every monthly frequency bonus.",
			Category:    "casual",
			Input: loyalty.SimulationInput{
				ActiveDaysPerWeek:  d(2),
				OrdersPerActiveDay: d(8),
				AverageOrderValue:  d(30000),
			},
		},
		{
			ID:          "weekday-regular",
			Name:        "Weekday regular",
			Description: "5 active days a week, 10 orders a day at 25,000. Qualifies for STANDARD by volume in month 1.",
			Category:    "regular",
			Input: loyalty.SimulationInput{
				ActiveDaysPerWeek:  d(5),
				OrdersPerActiveDay: d(10),
				AverageOrderValue:  d(25000),
			},
		},
		{
			ID:          "daily-streak",
			Name:        "Daily streak",
			Description: "Orders every single day, 3 orders at 12,000. Earns the consecutive bonuses on top of the milestones.",
			Category:    "regular",
			Input: loyalty.SimulationInput{
				ActiveDaysPerWeek:  d(7),
				OrdersPerActiveDay: d(3),
				AverageOrderValue:  d(12000),
				ConsecutivePattern: true,
			},
		},
		{
			ID:          "high-volume",
			Name:        "High-volume distributor",
			Description: "6 active days a week, 25 orders a day at 40,000. Starts at ADVANCE by volume, points finish the climb.",
			Category:    "power",
			Input: loyalty.SimulationInput{
				ActiveDaysPerWeek:  d(6),
				OrdersPerActiveDay: d(25),
				AverageOrderValue:  d(40000),
			},
		},
	}
}

// PatternByID looks up a canned pattern.
func PatternByID(id string) (SellerPattern, bool) {
	for _, p := range Patterns() {
		if p.ID == id {
			return p, true
		}
	}
	return SellerPattern{}, false
}
