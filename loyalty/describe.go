package loyalty

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	hundredMillion = decimal.NewFromInt(100_000_000)
	tenThousand    = decimal.NewFromInt(10_000)
)

// FormatSales renders a sales amount the way the admin portal does:
// 1.5억 (hundred-million units, one decimal), 500만 (ten-thousand units),
// otherwise a comma-grouped integer.
func FormatSales(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(hundredMillion):
		return v.Div(hundredMillion).StringFixed(1) + "억"
	case v.GreaterThanOrEqual(tenThousand):
		return v.Div(tenThousand).StringFixed(0) + "만"
	default:
		return humanize.Comma(v.Round(0).IntPart())
	}
}

// DescribeVolumeCriterion generates the human-readable summary shown next to
// a live criteria row. discountRate is a percentage.
func DescribeVolumeCriterion(c VolumeCriterion, discountRate decimal.Decimal) string {
	if discountRate.IsPositive() {
		return fmt.Sprintf("%d+ orders/month, %s+ sales (%s%% discount)",
			c.MinOrderCount, FormatSales(c.MinTotalSales), discountRate.String())
	}
	return fmt.Sprintf("%d+ orders/month (no discount)", c.MinOrderCount)
}
