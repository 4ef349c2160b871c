package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ObiAU/equitynews/internal/cache"
	"github.com/ObiAU/equitynews/internal/history"
	"github.com/ObiAU/equitynews/internal/logger"
	"github.com/ObiAU/equitynews/internal/models"
	"github.com/ObiAU/equitynews/internal/sources"
	"github.com/ObiAU/equitynews/internal/summary"
)

const (
	sessionCookie = "equitynews_session"
	shownArticles = 30
)

//go:embed templates/index.html
var templateFS embed.FS

// Researcher is the slice of summary.Service the UI calls.
type Researcher interface {
	Research(ctx context.Context, query string, maxArticles int) (*summary.Report, error)
	ClearAll() summary.ClearResult
	ClearOuter() summary.ClearResult
	ClearInner() summary.ClearResult
}

type Options struct {
	Addr               string
	DefaultMaxArticles int
	CacheTTL           time.Duration
}

type Server struct {
	svc      Researcher
	sessions *history.Sessions
	stats    func() []cache.Stats
	opts     Options
	tmpl     *template.Template
	server   *http.Server
	started  time.Time
}

type historyItem struct {
	Query   string
	Preview string
}

type pageData struct {
	Query            string
	MaxArticles      int
	MinArticles      int
	MaxArticlesLimit int
	CacheTTL         string
	Report           *summary.Report
	ShownArticles    []models.Article
	Error            string
	Informational    bool
	Notice           string
	History          []historyItem
}

func New(svc Researcher, sessions *history.Sessions, stats func() []cache.Stats, opts Options) *Server {
	if opts.DefaultMaxArticles == 0 {
		opts.DefaultMaxArticles = 20
	}
	tmpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"title": articleTitle,
	}).ParseFS(templateFS, "templates/index.html"))

	return &Server{
		svc:      svc,
		sessions: sessions,
		stats:    stats,
		opts:     opts,
		tmpl:     tmpl,
		started:  time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("POST /summarize", s.summarizeHandler)
	mux.HandleFunc("POST /cache/clear", s.clearHandler)
	mux.HandleFunc("GET /summary.txt", s.downloadHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web UI listening", zap.String("addr", s.opts.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	hist := s.sessionHistory(w, r)
	data := s.newPage(hist)
	data.Notice = clearNotice(r.URL.Query().Get("cleared"))
	s.render(w, data)
}

func (s *Server) summarizeHandler(w http.ResponseWriter, r *http.Request) {
	hist := s.sessionHistory(w, r)

	query := r.PostFormValue("query")
	maxArticles, err := strconv.Atoi(r.PostFormValue("max_articles"))
	if err != nil {
		maxArticles = s.opts.DefaultMaxArticles
	}
	maxArticles = sources.ClampArticles(maxArticles)

	report, err := s.svc.Research(r.Context(), query, maxArticles)
	if err == nil {
		hist.Add(query, report.Summary)
	} else if summary.StageOf(err) != summary.StageInput && !errors.Is(err, summary.ErrNoArticles) {
		logger.Warn("research request failed",
			zap.String("query", query),
			zap.String("stage", string(summary.StageOf(err))),
			zap.Error(err),
		)
	}

	data := s.newPage(hist)
	data.Query = query
	data.MaxArticles = maxArticles
	data.Report = report
	if report != nil {
		data.ShownArticles = report.Articles[:min(len(report.Articles), shownArticles)]
	}
	data.Error = summary.UserMessage(err)
	data.Informational = errors.Is(err, summary.ErrNoArticles) || errors.Is(err, summary.ErrEmptyQuery)

	s.render(w, data)
}

func (s *Server) clearHandler(w http.ResponseWriter, r *http.Request) {
	scope := r.PostFormValue("scope")

	var result summary.ClearResult
	switch scope {
	case "", "all":
		scope = "all"
		result = s.svc.ClearAll()
	case "outer":
		result = s.svc.ClearOuter()
	case "inner":
		result = s.svc.ClearInner()
	default:
		http.Error(w, "unknown cache scope", http.StatusBadRequest)
		return
	}

	logger.Info("cache cleared from web UI", zap.String("scope", scope), zap.Int("outer", result.Outer), zap.Int("inner", result.Inner))
	http.Redirect(w, r, "/?cleared="+scope, http.StatusSeeOther)
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	hist := s.sessionHistory(w, r)
	latest, ok := hist.Latest()
	if !ok {
		http.Error(w, "no summary in this session yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.txt"`)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, latest.Summary)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	var stats []cache.Stats
	if s.stats != nil {
		stats = s.stats()
	}
	writeJSON(w, map[string]interface{}{
		"cache_stats": stats,
		"sessions":    s.sessions.Len(),
		"uptime":      time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) newPage(hist *history.History) pageData {
	data := pageData{
		MaxArticles:      s.opts.DefaultMaxArticles,
		MinArticles:      sources.MinArticles,
		MaxArticlesLimit: sources.MaxArticles,
		CacheTTL:         formatTTL(s.opts.CacheTTL),
	}
	for _, e := range hist.Recent(history.DisplayLimit) {
		data.History = append(data.History, historyItem{Query: e.Query, Preview: e.Preview()})
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		logger.Error("failed to render page", zap.Error(err))
	}
}

// sessionHistory returns the caller's history, issuing a session cookie on
// first contact.
func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) *history.History {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return s.sessions.Get(c.Value)
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.Get(id)
}

func articleTitle(a models.Article) string {
	if strings.TrimSpace(a.Title) == "" {
		return "<no title>"
	}
	return a.Title
}

func clearNotice(scope string) string {
	switch scope {
	case "all":
		return "Cleared display cache and module cache."
	case "outer":
		return "Cleared display cache."
	case "inner":
		return "Cleared module cache."
	default:
		return ""
	}
}

func formatTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "no expiry"
	}
	if ttl%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(ttl/time.Hour))
	}
	return ttl.String()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
