// Package cmd - analyze command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"lease-analyzer/api"
	"lease-analyzer/core/types"
	"lease-analyzer/internal/app"
	"lease-analyzer/internal/config"
)

var (
	outputFormat string
	leaseState   string
	upfront      string
	monthly      string
	months       int
	buyout       string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <vehicle>",
	Short: "Grade a lease offer against the vehicle's market value",
	Long: `Value the vehicle, add up the lease including state tax and fees,
and grade the deal from Excellent to Very Poor.

Examples:
  lease-analyzer analyze "Honda Civic" --state CA --upfront 4000 --monthly 300 --months 36 --buyout 20000
  lease-analyzer analyze "2023 BMW X5" -s NY -m 700 -n 24 -b 45000 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
	analyzeCmd.Flags().StringVarP(&leaseState, "state", "s", "", "two-letter state code")
	analyzeCmd.Flags().StringVarP(&upfront, "upfront", "u", "0", "upfront payment")
	analyzeCmd.Flags().StringVarP(&monthly, "monthly", "m", "", "monthly payment")
	analyzeCmd.Flags().IntVarP(&months, "months", "n", 36, "lease duration in months (12-60)")
	analyzeCmd.Flags().StringVarP(&buyout, "buyout", "b", "0", "buyout price at lease end")
	_ = analyzeCmd.MarkFlagRequired("state")
	_ = analyzeCmd.MarkFlagRequired("monthly")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	terms, err := parseTerms(args[0])
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, config.Get())
	if err != nil {
		return err
	}
	defer a.Close()

	analysis, err := a.Engine.Analyze(ctx, terms)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewLeaseAnalysisResponse(analysis))
	case "cli", "":
		printAnalysis(out, analysis)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func parseTerms(carModel string) (types.LeaseTerms, error) {
	amounts := map[string]string{
		"upfront": upfront,
		"monthly": monthly,
		"buyout":  buyout,
	}
	parsed := make(map[string]decimal.Decimal, len(amounts))
	for flag, raw := range amounts {
		d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
		if err != nil {
			return types.LeaseTerms{}, fmt.Errorf("--%s: %q is not an amount", flag, raw)
		}
		parsed[flag] = d
	}

	return types.LeaseTerms{
		CarModel:            carModel,
		State:               leaseState,
		UpfrontPayment:      parsed["upfront"],
		MonthlyPayment:      parsed["monthly"],
		LeaseDurationMonths: months,
		BuyoutPrice:         parsed["buyout"],
	}, nil
}

func printAnalysis(w io.Writer, a *types.LeaseAnalysis) {
	v := a.VehicleValuation
	vehicle := a.CarModel
	if v.Make != "" {
		vehicle = types.FormatVehicle(v)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌────────────────────────────────────────────────────────────────────────┐")
	fmt.Fprintf(w, "│ %-70s │\n", truncate("Lease analysis #"+fmt.Sprint(a.ID)+": "+vehicle, 70))
	fmt.Fprintln(w, "├────────────────────────────────────────────────────────────────────────┤")
	row(w, "Upfront payment", dollars(a.UpfrontPayment))
	row(w, fmt.Sprintf("Monthly payments (%d x %s)", a.LeaseDurationMonths, dollars(a.MonthlyPayment)), dollars(a.TotalMonthlyPayments))
	row(w, "Buyout price", dollars(a.BuyoutPrice))
	row(w, fmt.Sprintf("Tax (%s, %s%%)", a.TaxBreakdown.StateName, a.TaxBreakdown.TaxRate.Mul(decimal.NewFromInt(100)).String()), dollars(a.TaxBreakdown.TotalTax))
	row(w, "State fees", dollars(a.TaxBreakdown.AdditionalFees))
	fmt.Fprintln(w, "├────────────────────────────────────────────────────────────────────────┤")
	row(w, "TOTAL LEASE COST", dollars(a.TotalCost))
	row(w, "Market value ("+v.Source.Label()+")", dollars(a.MarketValue))
	if v.MSRP.IsPositive() {
		row(w, "  └─ MSRP", dollars(v.MSRP))
	}
	row(w, "Savings", dollars(a.Savings)+" ("+a.SavingsPercentage.String()+"%)")
	fmt.Fprintln(w, "└────────────────────────────────────────────────────────────────────────┘")

	fmt.Fprintf(w, "\nDeal quality: %s\n", a.Quality)
	fmt.Fprintf(w, "%s\n", a.Recommendation)
	if a.Indeterminate {
		fmt.Fprintln(w, "Warning: market value is zero, savings percentage could not be computed.")
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "│ %-48s %21s │\n", truncate(label, 48), value)
}

func dollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
