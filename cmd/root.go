package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
)

var cfg *config.Config

// Persistent flags shared by every subcommand.
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "outreach-cli",
	Short: "Social lead discovery across LinkedIn, X and TikTok",
	Long:  "Searches LinkedIn, X and TikTok through Apify actors, keeps only real people, and exports the leads to CSV, XLSX, Notion or Salesforce.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadRuntime()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadRuntime reads config and installs the global logger. The --log-level
// flag wins over file and environment.
func loadRuntime() error {
	c, err := config.LoadFile(configPath)
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	cfg = c

	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	zap.L().Debug("config loaded",
		zap.String("store", cfg.Store.Driver),
		zap.String("jobs", cfg.Jobs.Backend),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
