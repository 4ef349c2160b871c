// Package summary composes the news fetcher, the LLM summarizer and two
// independent cache tiers.
//
// The outer tier is the display-facing cache with a fixed TTL. The inner tier
// memoizes the computation itself for the life of the process. Clearing one
// tier leaves the other alone; ClearAll clears both.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ObiAU/equitynews/internal/ai"
	"github.com/ObiAU/equitynews/internal/cache"
	"github.com/ObiAU/equitynews/internal/logger"
	"github.com/ObiAU/equitynews/internal/models"
	"github.com/ObiAU/equitynews/internal/sources"
	"github.com/ObiAU/equitynews/internal/tokens"
)

const articleSeparator = "\n\n"

// TitleSeparator joins an article's title and description.
const TitleSeparator = " — "

type Options struct {
	TokenWarnThreshold int
	// SingleFlight coalesces concurrent misses for the same key into one
	// upstream computation.
	SingleFlight bool
}

type Service struct {
	fetcher models.NewsSource
	llm     models.Summarizer
	inner   cache.Store
	outer   cache.Store
	opts    Options

	group singleflight.Group

	// clearMu orders cache writes against clears. Writers hold it shared and
	// check generation; ClearAll holds it exclusively and bumps generation,
	// so a computation that started before a clear never writes after it.
	clearMu    sync.RWMutex
	generation uint64
}

func NewService(fetcher models.NewsSource, llm models.Summarizer, inner, outer cache.Store, opts Options) *Service {
	if opts.TokenWarnThreshold <= 0 {
		opts.TokenWarnThreshold = tokens.DefaultWarnThreshold
	}
	return &Service{
		fetcher: fetcher,
		llm:     llm,
		inner:   inner,
		outer:   outer,
		opts:    opts,
	}
}

// ConcatArticles renders each article as "title — description" and joins
// them with blank lines. Missing fields render as empty strings.
func ConcatArticles(articles []models.Article) string {
	var sb strings.Builder
	for i, article := range articles {
		if i > 0 {
			sb.WriteString(articleSeparator)
		}
		sb.WriteString(article.Title)
		sb.WriteString(TitleSeparator)
		sb.WriteString(article.Description)
	}
	return sb.String()
}

// Compute is the uncached computation: fetch, concatenate, estimate, summarize.
func (s *Service) Compute(ctx context.Context, query string, maxArticles int) (string, error) {
	return s.compute(ctx, query, maxArticles, nil)
}

// Cached memoizes Compute in the inner tier.
func (s *Service) Cached(ctx context.Context, query string, maxArticles int) (string, error) {
	return s.cached(ctx, cache.Key{Query: query, MaxArticles: maxArticles}, nil)
}

// Get memoizes Cached in the outer tier.
func (s *Service) Get(ctx context.Context, query string, maxArticles int) (string, error) {
	return s.get(ctx, cache.Key{Query: query, MaxArticles: maxArticles}, nil)
}

func (s *Service) get(ctx context.Context, key cache.Key, prefetched []models.Article) (string, error) {
	if summary, ok := s.outer.Get(key); ok {
		logger.Debug("outer cache hit", zap.Stringer("key", key))
		return summary, nil
	}

	gen := s.currentGeneration()
	summary, err := s.cached(ctx, key, prefetched)
	if err != nil {
		return "", err
	}

	s.store(s.outer, gen, key, summary)
	return summary, nil
}

func (s *Service) cached(ctx context.Context, key cache.Key, prefetched []models.Article) (string, error) {
	if summary, ok := s.inner.Get(key); ok {
		logger.Debug("inner cache hit", zap.Stringer("key", key))
		return summary, nil
	}

	gen := s.currentGeneration()
	compute := func(ctx context.Context) (string, error) {
		summary, err := s.compute(ctx, key.Query, key.MaxArticles, prefetched)
		if err != nil {
			return "", err
		}
		s.store(s.inner, gen, key, summary)
		return summary, nil
	}

	if !s.opts.SingleFlight {
		return compute(ctx)
	}

	// Flights are scoped to a clear generation so a call made after ClearAll
	// never joins a computation started before it. The flight outlives any
	// one caller's cancellation; each caller stops waiting on its own ctx.
	flightKey := fmt.Sprintf("%d|%s", gen, key)
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		return compute(flightCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("joined in-flight summarization", zap.Stringer("key", key))
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) compute(ctx context.Context, query string, maxArticles int, prefetched []models.Article) (string, error) {
	articles := prefetched
	if articles == nil {
		var err error
		articles, err = s.fetch(ctx, query, maxArticles)
		if err != nil {
			return "", err
		}
	}
	if len(articles) == 0 {
		return "", ErrNoArticles
	}

	text := ConcatArticles(articles)
	estimate := tokens.Estimate(text)
	if tokens.ExceedsThreshold(estimate, s.opts.TokenWarnThreshold) {
		logger.Warn("large token estimate for summarization input",
			zap.String("query", query),
			zap.Int("articles", len(articles)),
			zap.Int("estimated_tokens", estimate),
			zap.Int("threshold", s.opts.TokenWarnThreshold),
		)
	}

	summary, err := s.llm.Summarize(ctx, text)
	if err != nil {
		var sumErr *ai.SummarizationError
		if !errors.As(err, &sumErr) {
			err = &ai.SummarizationError{Err: err}
		}
		logger.Error("summarization failed", zap.String("query", query), zap.Error(err))
		return "", err
	}

	logger.Info("summary computed",
		zap.String("query", query),
		zap.Int("max_articles", maxArticles),
		zap.Int("articles", len(articles)),
		zap.Int("estimated_tokens", estimate),
	)
	return summary, nil
}

func (s *Service) fetch(ctx context.Context, query string, maxArticles int) ([]models.Article, error) {
	articles, err := s.fetcher.FetchArticles(ctx, query, maxArticles)
	if err != nil {
		var fetchErr *sources.FetchError
		if !errors.As(err, &fetchErr) {
			err = &sources.FetchError{Source: s.fetcher.GetName(), Err: err}
		}
		logger.Error("news fetch failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return articles, nil
}

func (s *Service) currentGeneration() uint64 {
	s.clearMu.RLock()
	defer s.clearMu.RUnlock()
	return s.generation
}

func (s *Service) store(tier cache.Store, gen uint64, key cache.Key, summary string) {
	s.clearMu.RLock()
	defer s.clearMu.RUnlock()

	if gen != s.generation {
		logger.Debug("dropping summary computed before cache clear", zap.Stringer("key", key))
		return
	}
	tier.Put(key, summary)
}

// ClearResult counts the entries removed from each tier.
type ClearResult struct {
	Outer int `json:"outer" yaml:"outer"`
	Inner int `json:"inner" yaml:"inner"`
}

func (r ClearResult) String() string {
	return fmt.Sprintf("cleared %d display and %d module cache entries", r.Outer, r.Inner)
}

// ClearAll empties both tiers. Once it returns, neither tier serves a value
// stored before the call, including values from computations in flight.
func (s *Service) ClearAll() ClearResult {
	s.clearMu.Lock()
	defer s.clearMu.Unlock()

	s.generation++
	result := ClearResult{Outer: s.outer.Clear(), Inner: s.inner.Clear()}
	logger.Info("cleared all caches", zap.Int("outer", result.Outer), zap.Int("inner", result.Inner))
	return result
}

// ClearOuter empties only the display tier; the inner tier keeps serving.
func (s *Service) ClearOuter() ClearResult {
	s.clearMu.Lock()
	defer s.clearMu.Unlock()

	result := ClearResult{Outer: s.outer.Clear()}
	logger.Info("cleared display cache", zap.Int("outer", result.Outer))
	return result
}

// ClearInner empties only the module tier.
func (s *Service) ClearInner() ClearResult {
	s.clearMu.Lock()
	defer s.clearMu.Unlock()

	result := ClearResult{Inner: s.inner.Clear()}
	logger.Info("cleared module cache", zap.Int("inner", result.Inner))
	return result
}
