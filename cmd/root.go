package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ObiAU/equitynews/internal/config"
	"github.com/ObiAU/equitynews/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagEnvFile  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "equitynews",
	Short:         "Summarize recent news for equity research",
	Long:          "equitynews fetches news articles matching a query from NewsAPI and summarizes them with an OpenAI model.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "path to a .env file (default ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "equitynews %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// loadConfig reads and validates configuration, then initializes logging.
// Missing API keys fail here rather than on the first request.
func loadConfig() (*config.Config, error) {
	var files []string
	if flagEnvFile != "" {
		files = append(files, flagEnvFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
