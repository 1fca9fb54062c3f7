package factory

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/loyalty-engine/loyalty"
)

// InputDoc is the document representation of a SimulationInput.
type InputDoc struct {
	ActiveDaysPerWeek  float64 `json:"active_days_per_week" yaml:"active_days_per_week" validate:"gte=0,lte=7"`
	OrdersPerActiveDay float64 `json:"orders_per_active_day" yaml:"orders_per_active_day" validate:"gte=0"`
	AverageOrderValue  float64 `json:"average_order_value" yaml:"average_order_value" validate:"gte=0"`
	ConsecutivePattern bool    `json:"consecutive_pattern" yaml:"consecutive_pattern"`
}

// ParseInput decodes an ordering hypothesis. Range checks happen in the
// engine, so a decoded input is not yet a valid one.
func ParseInput(data []byte, format Format) (loyalty.SimulationInput, error) {
	var doc InputDoc
	if err := Decode(data, format, &doc); err != nil {
		return loyalty.SimulationInput{}, fmt.Errorf("failed to parse input %s: %w: %w", format, loyalty.ErrInvalidInput, err)
	}
	return InputFromDoc(doc), nil
}

// InputFromDoc converts an InputDoc.
func InputFromDoc(doc InputDoc) loyalty.SimulationInput {
	return loyalty.SimulationInput{
		ActiveDaysPerWeek:  decimal.NewFromFloat(doc.ActiveDaysPerWeek),
		OrdersPerActiveDay: decimal.NewFromFloat(doc.OrdersPerActiveDay),
		AverageOrderValue:  decimal.NewFromFloat(doc.AverageOrderValue),
		ConsecutivePattern: doc.ConsecutivePattern,
	}
}

// InputToDoc is the inverse of InputFromDoc.
func InputToDoc(in loyalty.SimulationInput) InputDoc {
	return InputDoc{
		ActiveDaysPerWeek:  in.ActiveDaysPerWeek.InexactFloat64(),
		OrdersPerActiveDay: in.OrdersPerActiveDay.InexactFloat64(),
		AverageOrderValue:  in.AverageOrderValue.InexactFloat64(),
		ConsecutivePattern: in.ConsecutivePattern,
	}
}
