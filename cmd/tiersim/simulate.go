package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/api"
	"github.com/warp/loyalty-engine/factory"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/presets"
)

type simulateOptions struct {
	configPath   string
	pattern      string
	daysPerWeek  float64
	ordersPerDay float64
	orderValue   float64
	consecutive  bool
	maxMonths    int
	settleMonths int
	jsonOutput   bool
	upgradesOnly bool
}

func newSimulateCmd(a *app) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulation and print the month table",
		Long: `Run one simulation and print the month table.

The program comes from --config (YAML or JSON by extension) or defaults
to the built-in program. The ordering hypothesis comes from --pattern,
with any explicitly set hypothesis flag overriding the pattern's value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := opts.input(cmd)
			if err != nil {
				return err
			}
			return a.simulate(cmd.OutOrStdout(), opts, input)
		},
	}

	def := presets.DefaultInput()
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Program document (.yaml, .yml or .json)")
	flags.StringVar(&opts.pattern, "pattern", "", "Start from a canned seller pattern (see 'tiersim scenarios')")
	flags.Float64Var(&opts.daysPerWeek, "days-per-week", def.ActiveDaysPerWeek.InexactFloat64(), "Active days per week (0-7)")
	flags.Float64Var(&opts.ordersPerDay, "orders-per-day", def.OrdersPerActiveDay.InexactFloat64(), "Orders per active day")
	flags.Float64Var(&opts.orderValue, "order-value", def.AverageOrderValue.InexactFloat64(), "Average order value")
	flags.BoolVar(&opts.consecutive, "consecutive", def.ConsecutivePattern, "Active days are consecutive (enables consecutive bonuses)")
	flags.IntVar(&opts.maxMonths, "max-months", 0, "Horizon cap in months (0 for the default)")
	flags.IntVar(&opts.settleMonths, "settle-months", 0, "Months to keep simulating after LEGEND (0 for the default)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the full result as JSON")
	flags.BoolVar(&opts.upgradesOnly, "upgrades-only", false, "Only print months with a promotion")
	return cmd
}

// input resolves the hypothesis from --pattern and the explicit flags.
func (o *simulateOptions) input(cmd *cobra.Command) (loyalty.SimulationInput, error) {
	in := loyalty.SimulationInput{}
	if o.pattern != "" {
		p, ok := presets.PatternByID(o.pattern)
		if !ok {
			return in, fmt.Errorf("unknown pattern %q (known: %s)", o.pattern, strings.Join(patternIDs(), ", "))
		}
		in = p.Input
	}

	flags := cmd.Flags()
	if o.pattern == "" || flags.Changed("days-per-week") {
		in.ActiveDaysPerWeek = decimal.NewFromFloat(o.daysPerWeek)
	}
	if o.pattern == "" || flags.Changed("orders-per-day") {
		in.OrdersPerActiveDay = decimal.NewFromFloat(o.ordersPerDay)
	}
	if o.pattern == "" || flags.Changed("order-value") {
		in.AverageOrderValue = decimal.NewFromFloat(o.orderValue)
	}
	if o.pattern == "" || flags.Changed("consecutive") {
		in.ConsecutivePattern = o.consecutive
	}
	return in, nil
}

func (a *app) simulate(out io.Writer, opts *simulateOptions, input loyalty.SimulationInput) error {
	bundle, source := presets.DefaultProgram(), api.ConfigSourceDefault
	if opts.configPath != "" {
		b, err := factory.NewBundleFactory().LoadBundleFile(opts.configPath)
		if err != nil {
			return err
		}
		bundle, source = b, api.ConfigSourceRequest
	}

	engine := loyalty.SimulationEngine{
		Config:       bundle,
		MaxMonths:    firstNonZero(opts.maxMonths, a.settings.MaxMonths),
		SettleMonths: firstNonZero(opts.settleMonths, a.settings.SettleMonths),
	}
	result, err := engine.Run(input)
	if err != nil {
		return err
	}
	a.logger.Debug("simulation completed",
		zap.String("config_source", source),
		zap.Stringer("final_tier", result.FinalTier()),
		zap.Int("months", len(result.Snapshots)),
	)

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewSimulationResponse(result, bundle, source))
	}
	return printResult(out, result, opts.upgradesOnly)
}

func printResult(out io.Writer, result *loyalty.SimulationResult, upgradesOnly bool) error {
	in := result.Input
	fmt.Fprintf(out, "Hypothesis: %s active days/week, %s orders/day, %s per order, consecutive=%t\n",
		in.ActiveDaysPerWeek, in.OrdersPerActiveDay, loyalty.FormatSales(in.AverageOrderValue), in.ConsecutivePattern)
	fmt.Fprintf(out, "Monthly average: %s active days, %s orders, %s sales\n\n",
		result.AverageActiveDaysPerMonth.StringFixed(2),
		humanize.Comma(int64(result.MonthlyOrderCount)),
		loyalty.FormatSales(result.MonthlySalesVolume))

	if len(result.Upgrades) == 0 {
		fmt.Fprintf(out, "No promotion within %d months.\n\n", len(result.Snapshots))
	} else {
		fmt.Fprintln(out, "Upgrades:")
		for _, u := range result.Upgrades {
			fmt.Fprintf(out, "  %-9s month %3d  (%s)\n", u.Tier, u.MonthReached, u.Source)
		}
		fmt.Fprintln(out)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tDAYS\tPOINTS\tBASE\tMILESTONES\tCONSECUTIVE\tMONTHLY\tORDERS\tSALES\tTIER\tSOURCE\t")
	for _, s := range result.Snapshots {
		if upgradesOnly && !s.Upgraded() {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.MonthIndex,
			humanize.Comma(int64(s.CumulativeActiveDays)),
			points(s.CumulativePoints),
			points(s.Breakdown.Base),
			points(s.Breakdown.Milestones),
			points(s.Breakdown.Consecutive),
			points(s.Breakdown.Monthly),
			humanize.Comma(int64(s.MonthlyOrderCount)),
			loyalty.FormatSales(s.MonthlySalesVolume),
			s.Tier,
			sourceLabel(s.UpgradeSource),
		)
	}
	return tw.Flush()
}

func points(v decimal.Decimal) string {
	return humanize.Commaf(v.InexactFloat64())
}

func sourceLabel(s loyalty.UpgradeSource) string {
	if s == loyalty.SourceNone {
		return "-"
	}
	return string(s)
}

func patternIDs() []string {
	var ids []string
	for _, p := range presets.Patterns() {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids
}

func firstNonZero(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
