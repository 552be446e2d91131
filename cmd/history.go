package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past searches",
	Long:  "Commands for listing and summarizing executed searches, newest first.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		output, _ := cmd.Flags().GetString("output")

		entries, err := st.ListHistory(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if output != outputTable {
			if entries == nil {
				entries = []model.HistoryEntry{}
			}
			return writeValue(os.Stdout, output, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No searches found.")
			return nil
		}
		formatHistoryList(os.Stdout, entries)
		return nil
	},
}

// -- history stats --

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate search statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := st.ListHistory(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "history stats")
		}

		formatHistoryStats(os.Stdout, computeHistoryStats(entries))
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", store.DefaultHistoryLimit, "max number of searches to display")
	historyListCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")

	historyStatsCmd.Flags().Int("limit", 10000, "number of recent searches to summarize")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyStats holds aggregate statistics computed from search history.
type historyStats struct {
	Total       int
	Empty       int
	Results     int
	ByPlatform  map[string]int
	AvgResults  float64
	FromJobs    int
	Synchronous int
}

// computeHistoryStats computes aggregate statistics from history entries.
func computeHistoryStats(entries []model.HistoryEntry) historyStats {
	s := historyStats{ByPlatform: make(map[string]int)}
	s.Total = len(entries)

	for _, e := range entries {
		s.Results += e.ResultCount
		if e.ResultCount == 0 {
			s.Empty++
		}
		platform := e.Params.Platform
		if p, err := model.ParsePlatform(platform); err == nil {
			platform = string(p)
		}
		s.ByPlatform[platform]++
		if e.JobID != "" {
			s.FromJobs++
		} else {
			s.Synchronous++
		}
	}

	if s.Total > 0 {
		s.AvgResults = float64(s.Results) / float64(s.Total)
	}
	return s
}

// formatHistoryList writes a tabular list of searches to w.
func formatHistoryList(out io.Writer, entries []model.HistoryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWHEN\tPLATFORM\tKEYWORD\tLOCATION\tRESULTS\tJOB")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t-------\t--------\t-------\t---")

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			truncateID(e.ID),
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Params.Platform,
			truncate(e.Params.Keyword, 30),
			truncate(e.Params.Location, 20),
			e.ResultCount,
			truncateID(e.JobID),
		)
	}
	_ = w.Flush()
}

// formatHistoryStats writes aggregate stats to w.
func formatHistoryStats(out io.Writer, s historyStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total searches:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Synchronous:\t%d\n", s.Synchronous)
	_, _ = fmt.Fprintf(w, "  From jobs:\t%d\n", s.FromJobs)
	_, _ = fmt.Fprintf(w, "Empty searches:\t%d\n", s.Empty)
	_, _ = fmt.Fprintf(w, "Total leads:\t%d\n", s.Results)

	platforms := make([]string, 0, len(s.ByPlatform))
	for p := range s.ByPlatform {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", p, s.ByPlatform[p])
	}

	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Avg leads/search:\t%.1f\n", s.AvgResults)
	}
	_ = w.Flush()
}
