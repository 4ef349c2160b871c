package summary

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ObiAU/equitynews/internal/cache"
	"github.com/ObiAU/equitynews/internal/logger"
	"github.com/ObiAU/equitynews/internal/models"
	"github.com/ObiAU/equitynews/internal/sources"
	"github.com/ObiAU/equitynews/internal/tokens"
)

// Report is everything a front-end renders for one research request.
type Report struct {
	Query         string           `json:"query" yaml:"query"`
	MaxArticles   int              `json:"max_articles" yaml:"max_articles"`
	Articles      []models.Article `json:"articles" yaml:"articles"`
	TokenEstimate int              `json:"token_estimate" yaml:"token_estimate"`
	CostWarning   bool             `json:"cost_warning" yaml:"cost_warning"`
	Summary       string           `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Research runs one interactive request. The query is used verbatim; a blank
// query is rejected. A fetch failure is returned with an empty report and the
// summary step is skipped. A summarization failure is returned with the
// fetched articles still in the report. The returned report is never nil.
func (s *Service) Research(ctx context.Context, query string, maxArticles int) (*Report, error) {
	maxArticles = sources.ClampArticles(maxArticles)
	report := &Report{Query: query, MaxArticles: maxArticles}

	if strings.TrimSpace(query) == "" {
		return report, ErrEmptyQuery
	}

	articles, err := s.fetch(ctx, query, maxArticles)
	if err != nil {
		return report, err
	}
	if len(articles) == 0 {
		logger.Info("no articles found", zap.String("query", query))
		return report, ErrNoArticles
	}

	report.Articles = articles
	report.TokenEstimate = tokens.Estimate(ConcatArticles(articles))
	report.CostWarning = tokens.ExceedsThreshold(report.TokenEstimate, s.opts.TokenWarnThreshold)

	summary, err := s.get(ctx, cache.Key{Query: query, MaxArticles: maxArticles}, articles)
	if err != nil {
		return report, err
	}

	report.Summary = summary
	return report, nil
}
