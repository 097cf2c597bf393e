package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/internal/config"
	"github.com/speakwell/analysis-pipeline/pkg/log"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "analyzer",
	Short:        "Speaking analysis pipeline",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(statusCmd)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides ANALYZER_LOG_LEVEL")
}

// setup reads the configuration and installs the global zap logger.
// The returned func flushes and restores the previous logger.
func setup() (*config.Config, func()) {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("reading configuration", "error", err)
	}

	if logLevel != "" {
		cfg.Service.LogLevel = logLevel
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}
}
