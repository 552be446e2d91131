package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage bookmarked leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked leads, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		output, _ := cmd.Flags().GetString("output")
		if output != outputTable {
			if saved == nil {
				saved = []model.SavedLead{}
			}
			return writeValue(os.Stdout, output, saved)
		}
		if len(saved) == 0 {
			fmt.Fprintln(os.Stderr, "No bookmarked leads.")
			return nil
		}
		formatLeadsTable(os.Stdout, export.Leads(saved))
		return nil
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <lead-id>...",
	Short: "Remove bookmarks by lead ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var missing []string
		for _, id := range args {
			ok, err := st.DeleteLead(ctx, id)
			if err != nil {
				return eris.Wrapf(err, "delete lead %s", id)
			}
			if !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return eris.Errorf("lead not found: %v", missing)
		}
		return nil
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write bookmarked leads to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = export.Filename(format, time.Now())
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "leads export")
		}

		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		if err := export.Write(f, format, export.Leads(saved)); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", path)
		}

		zap.L().Info("leads exported",
			zap.String("path", path),
			zap.String("format", string(format)),
			zap.Int("leads", len(saved)),
		)
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

var leadsPushCmd = &cobra.Command{
	Use:       "push <notion|salesforce>",
	Short:     "Upsert bookmarked leads into Notion or Salesforce",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"notion", "salesforce"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := initSink(args[0])
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		saved, err := st.ListLeads(ctx)
		if err != nil {
			return eris.Wrap(err, "leads push")
		}

		sum, err := sink.Push(ctx, export.Leads(saved))
		if err != nil {
			return eris.Wrapf(err, "push to %s", sink.Name())
		}
		fmt.Fprintf(os.Stdout, "%s: created %d, updated %d, skipped %d, failed %d\n",
			sink.Name(), sum.Created, sum.Updated, sum.Skipped, sum.Failed)
		return nil
	},
}

func init() {
	leadsListCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")

	leadsExportCmd.Flags().StringP("format", "f", string(export.FormatCSV), "file format (csv, xlsx)")
	leadsExportCmd.Flags().String("out", "", "output path (default leads_<timestamp>.<format>)")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsDeleteCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	leadsCmd.AddCommand(leadsPushCmd)
	rootCmd.AddCommand(leadsCmd)
}
