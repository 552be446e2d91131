package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	searchPlatform string
	searchLocation string
	searchMax      int
	searchOutput   string
	searchSave     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search one platform for people matching a keyword",
	Example: `  outreach-cli search "AI founders" --platform linkedin --location Berlin --max 10
  outreach-cli search fintech --platform x --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		params := model.SearchParams{
			Keyword:    strings.Join(args, " "),
			Location:   searchLocation,
			Platform:   searchPlatform,
			MaxResults: searchMax,
		}
		if cfg.Scrape.MaxResultsLimit > 0 && params.MaxResults > cfg.Scrape.MaxResultsLimit {
			return eris.Errorf("--max must be at most %d", cfg.Scrape.MaxResultsLimit)
		}

		env, err := initApp(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Runner.Run(ctx, params)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		if job.Status == model.JobStatusFailed {
			return eris.Errorf("search failed (%s): %s", job.ErrorKind, job.Error)
		}

		if searchSave {
			for _, l := range job.Results {
				if _, err := env.Store.SaveLead(ctx, l); err != nil {
					return eris.Wrapf(err, "bookmark lead %s", l.ID)
				}
			}
			zap.L().Info("bookmarked search results", zap.Int("leads", len(job.Results)))
		}

		return writeLeads(os.Stdout, searchOutput, job.Results)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchPlatform, "platform", "p", "linkedin", "platform to search (linkedin, x, tiktok)")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "location appended to the search query")
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum leads to return (default from config)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputTable, "output format (table, json, yaml)")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "bookmark every returned lead")
	rootCmd.AddCommand(searchCmd)
}
