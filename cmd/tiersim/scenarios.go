package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/presets"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "Run every canned seller pattern on the default program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printScenarios(cmd.OutOrStdout())
		},
	}
}

func printScenarios(out io.Writer) error {
	engine := loyalty.SimulationEngine{Config: presets.DefaultProgram()}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAYS/WEEK\tORDERS/DAY\tORDER VALUE\tMONTHLY SALES\tSTANDARD\tADVANCE\tELITE\tLEGEND")
	for _, p := range presets.Patterns() {
		result, err := engine.Run(p.Input)
		if err != nil {
			return fmt.Errorf("pattern %s: %w", p.ID, err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s", p.ID,
			p.Input.ActiveDaysPerWeek, p.Input.OrdersPerActiveDay,
			humanize.Comma(p.Input.AverageOrderValue.IntPart()),
			loyalty.FormatSales(result.MonthlySalesVolume))
		for _, tier := range loyalty.PromotableTiers {
			fmt.Fprintf(tw, "\t%s", reachedLabel(result, tier))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func reachedLabel(result *loyalty.SimulationResult, tier loyalty.Tier) string {
	month, ok := result.MonthReached(tier)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("m%d", month)
}
