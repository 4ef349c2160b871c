package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ObiAU/equitynews/internal/app"
	"github.com/ObiAU/equitynews/internal/summary"
)

var (
	flagMax    int
	flagFormat string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <query>",
	Short: "Fetch and summarize news for a query once",
	Example: `  equitynews summarize "Acme Corp" --max 10
  equitynews summarize semiconductor export controls --format yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVar(&flagMax, "max", 0, "max articles to fetch, 5-100 (default DEFAULT_MAX_ARTICLES)")
	summarizeCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text, json, yaml")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxArticles := flagMax
	if maxArticles == 0 {
		maxArticles = cfg.DefaultMaxArticles
	}

	a := app.New(cfg)
	defer a.Close()

	query := strings.Join(args, " ")
	report, err := a.Service().Research(cmd.Context(), query, maxArticles)
	if err != nil && !errors.Is(err, summary.ErrNoArticles) {
		// Articles fetched before a summarization failure are still shown.
		if len(report.Articles) > 0 {
			if rerr := renderReport(cmd.OutOrStdout(), report, format); rerr != nil {
				return rerr
			}
		}
		return errors.New(summary.UserMessage(err))
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), summary.UserMessage(err))
		return nil
	}

	return renderReport(cmd.OutOrStdout(), report, format)
}
