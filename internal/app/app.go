package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ObiAU/equitynews/internal/ai"
	"github.com/ObiAU/equitynews/internal/cache"
	"github.com/ObiAU/equitynews/internal/config"
	"github.com/ObiAU/equitynews/internal/history"
	"github.com/ObiAU/equitynews/internal/logger"
	"github.com/ObiAU/equitynews/internal/sources"
	"github.com/ObiAU/equitynews/internal/summary"
	"github.com/ObiAU/equitynews/internal/telegram"
	"github.com/ObiAU/equitynews/internal/web"
)

const sessionPruneInterval = 10 * time.Minute

// App owns the cache tiers and the summary service shared by every front-end.
type App struct {
	config   *config.Config
	inner    *cache.Cache
	outer    *cache.Cache
	service  *summary.Service
	sessions *history.Sessions
	mu       sync.RWMutex
	running  bool
}

func New(cfg *config.Config) *App {
	inner := cache.New("module", cfg.ModuleCacheTTL, cfg.CleanupInterval)
	outer := cache.New("display", cfg.CacheTTL, cfg.CleanupInterval)

	fetcher := sources.NewNewsAPIClient(cfg.NewsAPIKey, cfg.NewsAPIBaseURL)
	llm := ai.NewOpenAIClient(cfg.OpenAIAPIKey, ai.Options{
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})

	service := summary.NewService(fetcher, llm, inner, outer, summary.Options{
		TokenWarnThreshold: cfg.TokenWarnThreshold,
		SingleFlight:       cfg.SingleFlight,
	})

	return &App{
		config:   cfg,
		inner:    inner,
		outer:    outer,
		service:  service,
		sessions: history.NewSessions(cfg.SessionIdleTimeout),
	}
}

func (a *App) Service() *summary.Service {
	return a.service
}

func (a *App) CacheStats() []cache.Stats {
	return []cache.Stats{a.outer.Stats(), a.inner.Stats()}
}

// Run serves the web UI, and the Telegram bot when configured, until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if a.config.TelegramEnabled() {
		bot, err := telegram.NewBot(a.config.TelegramToken, a.service, a.sessions, a.config.DefaultMaxArticles)
		if err != nil {
			return fmt.Errorf("failed to start telegram bot: %w", err)
		}
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	go a.pruneSessionsLoop(ctx)

	server := web.New(a.service, a.sessions, a.CacheStats, web.Options{
		Addr:               ":" + a.config.ServerPort,
		DefaultMaxArticles: a.config.DefaultMaxArticles,
		CacheTTL:           a.config.CacheTTL,
	})
	return server.Run(ctx)
}

func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

func (a *App) pruneSessionsLoop(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Prune(); n > 0 {
				logger.Debug("pruned idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close stops the cache cleanup goroutines.
func (a *App) Close() {
	a.inner.Close()
	a.outer.Close()
}
