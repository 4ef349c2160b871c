package summary

import (
	"errors"
	"strings"

	"github.com/ObiAU/equitynews/internal/ai"
	"github.com/ObiAU/equitynews/internal/config"
	"github.com/ObiAU/equitynews/internal/sources"
)

var (
	ErrNoArticles = errors.New("no articles found for this query")
	ErrEmptyQuery = errors.New("please enter a query")
)

// Stage names the step of a research request that failed.
type Stage string

const (
	StageNone      Stage = ""
	StageInput     Stage = "input"
	StageConfig    Stage = "config"
	StageFetch     Stage = "fetch"
	StageSummarize Stage = "summarize"
)

// StageOf classifies err by the step that produced it.
func StageOf(err error) Stage {
	var (
		fetchErr *sources.FetchError
		sumErr   *ai.SummarizationError
		cfgErr   *config.ConfigurationError
	)

	switch {
	case err == nil:
		return StageNone
	case errors.Is(err, sources.ErrMissingAPIKey), errors.Is(err, ai.ErrMissingAPIKey), errors.As(err, &cfgErr):
		return StageConfig
	case errors.Is(err, ErrEmptyQuery):
		return StageInput
	case errors.Is(err, ErrNoArticles), errors.As(err, &fetchErr):
		return StageFetch
	case errors.As(err, &sumErr):
		return StageSummarize
	default:
		return StageNone
	}
}

// UserMessage renders err as an inline message naming the failed stage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoArticles) || errors.Is(err, ErrEmptyQuery) {
		return capitalize(err.Error()) + "."
	}

	switch StageOf(err) {
	case StageConfig:
		return "Configuration problem: " + err.Error()
	case StageFetch:
		return "Failed to fetch articles: " + err.Error()
	case StageSummarize:
		return "Error during summarization: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
