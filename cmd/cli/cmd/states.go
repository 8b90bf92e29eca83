// Package cmd - states command
package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"lease-analyzer/api"
	"lease-analyzer/core/tax"
	"lease-analyzer/core/types"
)

// statesCmd represents the states command
var statesCmd = &cobra.Command{
	Use:   "states [code]",
	Short: "List state lease tax rates and fees",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStates,
}

func init() {
	statesCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json)")
}

func runStates(cmd *cobra.Command, args []string) error {
	table := tax.Default()

	rows := table.All()
	if len(args) == 1 {
		info, ok := table.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown state: %s", args[0])
		}
		rows = []types.StateTaxInfo{info}
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		resp := make([]api.StateTaxResponse, 0, len(rows))
		for _, info := range rows {
			resp = append(resp, api.NewStateTaxResponse(info))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	hundred := decimal.NewFromInt(100)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tSTATE\tLEASE TAX\tTYPE\tFEES")
	for _, info := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\t%s\n",
			info.Code, info.Name, info.LeaseTaxRate.Mul(hundred).String(), info.LeaseTaxType, dollars(info.AdditionalFees))
	}
	return tw.Flush()
}
