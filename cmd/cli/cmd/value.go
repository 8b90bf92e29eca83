// Package cmd - value command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lease-analyzer/api"
	"lease-analyzer/core/types"
	"lease-analyzer/internal/app"
	"lease-analyzer/internal/config"
)

// valueCmd represents the value command
var valueCmd = &cobra.Command{
	Use:   "value <vehicle>...",
	Short: "Estimate MSRP and market value for one or more vehicles",
	Long: `Value vehicles from free-text descriptions. Lookups against external
providers run a few at a time; results are printed in argument order.

Examples:
  lease-analyzer value "2023 BMW X5"
  lease-analyzer value "Honda Civic" "2021 Ford F-150" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValue,
}

func init() {
	valueCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
}

func runValue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Build(ctx, config.Get())
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.Valuator.ValueMany(ctx, args)

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewVehicleValuesResponse(results))
	case "cli", "":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VEHICLE\tMSRP\tMARKET VALUE\tSOURCE")
		for _, r := range results {
			if r.Valuation == nil {
				fmt.Fprintf(tw, "%s\t-\t-\tnot recognized\n", r.Input)
				continue
			}
			v := *r.Valuation
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", types.FormatVehicle(v), dollars(v.MSRP), dollars(v.MarketValue), v.Source.Label())
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}
