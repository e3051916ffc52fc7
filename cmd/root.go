package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
)

// flagKeys maps root persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"data-dir":  "data.dir",
	"provider":  "llm.provider",
	"log-level": "log.level",
}

var rootCmd = &cobra.Command{
	Use:   "estate-cli",
	Short: "Grounded answers to real estate questions",
	Long:  "Answers free-text questions about Indian city property markets using cached listing data and an LLM, and keeps that data fresh by scraping.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(config.LoadOptions{
			File:  cfgFile,
			Flags: boundFlags(cmd.Flags()),
		})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		zap.L().Debug("config loaded",
			zap.String("data_dir", cfg.Data.Dir),
			zap.String("provider", cfg.LLM.Provider),
			zap.Strings("cities", cfg.Scrape.Cities),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func boundFlags(fs *pflag.FlagSet) map[string]*pflag.Flag {
	out := make(map[string]*pflag.Flag, len(flagKeys))
	for name, key := range flagKeys {
		out[key] = fs.Lookup(name)
	}
	return out
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	pf.String("data-dir", "", "directory holding the per-city listing tables")
	pf.String("provider", "", "LLM provider: gemini or anthropic")
	pf.String("log-level", "", "log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
