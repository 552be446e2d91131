package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/cost"
	"github.com/sells-group/outreach-cli/internal/model"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate Apify spend per platform and search size",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sizes, _ := cmd.Flags().GetIntSlice("sizes")
		output, _ := cmd.Flags().GetString("output")

		report := cost.NewCalculator(cfg.Pricing).Analysis(sizes)
		if output != outputTable {
			return writeValue(os.Stdout, output, report)
		}
		formatCostReport(os.Stdout, report)
		return nil
	},
}

func init() {
	costCmd.Flags().IntSlice("sizes", nil, "search sizes to price (default 10,20,50,100)")
	costCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(costCmd)
}

// formatCostReport writes one row per platform and size.
func formatCostReport(out io.Writer, r cost.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLATFORM\tLEADS\tRAW ITEMS\tUSD")
	_, _ = fmt.Fprintln(w, "--------\t-----\t---------\t---")
	for _, p := range model.AllPlatforms() {
		for _, e := range r.Estimates[p] {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t$%.4f\n", p, e.MaxResults, e.RawItems, e.USD)
		}
	}
	_ = w.Flush()
}
