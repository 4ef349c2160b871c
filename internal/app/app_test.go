package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ObiAU/equitynews/internal/config"
)

// upstream fakes both NewsAPI and the OpenAI chat completions endpoint.
func upstream(t *testing.T, newsCalls, llmCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/news/everything", func(w http.ResponseWriter, r *http.Request) {
		newsCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"totalResults": 2,
			"articles": []map[string]interface{}{
				{"source": map[string]string{"name": "Reuters"}, "title": "A", "description": "B"},
				{"source": map[string]string{"name": "FT"}, "title": "C", "description": nil},
			},
		})
	})
	mux.HandleFunc("/openai/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		llmCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Acme summary"}}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		NewsAPIKey:         "news",
		NewsAPIBaseURL:     baseURL + "/news",
		OpenAIAPIKey:       "sk",
		OpenAIModel:        "gpt-4o-mini",
		OpenAIBaseURL:      baseURL + "/openai/",
		OpenAITimeout:      5 * time.Second,
		CacheTTL:           24 * time.Hour,
		CleanupInterval:    time.Hour,
		TokenWarnThreshold: 8000,
		DefaultMaxArticles: 20,
		SingleFlight:       true,
		SessionIdleTimeout: time.Hour,
	}
}

func TestApp_EndToEnd(t *testing.T) {
	var newsCalls, llmCalls atomic.Int32
	server := upstream(t, &newsCalls, &llmCalls)

	a := New(testConfig(server.URL))
	defer a.Close()
	ctx := context.Background()

	report, err := a.Service().Research(ctx, "Acme Corp", 5)
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	if report.Summary != "Acme summary" || len(report.Articles) != 2 {
		t.Errorf("report = %+v", report)
	}

	if _, err := a.Service().Get(ctx, "Acme Corp", 5); err != nil {
		t.Fatal(err)
	}
	if got := llmCalls.Load(); got != 1 {
		t.Errorf("llm calls = %d, want 1", got)
	}

	a.Service().ClearAll()
	for _, s := range a.CacheStats() {
		if s.Entries != 0 {
			t.Errorf("%s tier has %d entries after ClearAll", s.Name, s.Entries)
		}
	}

	if _, err := a.Service().Get(ctx, "Acme Corp", 5); err != nil {
		t.Fatal(err)
	}
	if got := llmCalls.Load(); got != 2 {
		t.Errorf("llm calls after clear = %d, want 2", got)
	}
	if got := newsCalls.Load(); got != 2 {
		t.Errorf("news calls = %d, want 2", got)
	}
}

func TestApp_CacheStatsNames(t *testing.T) {
	a := New(testConfig("http://127.0.0.1:0"))
	defer a.Close()

	stats := a.CacheStats()
	if len(stats) != 2 {
		t.Fatalf("len(CacheStats) = %d, want 2", len(stats))
	}
	if stats[0].Name != "display" || stats[0].TTL != "24h0m0s" {
		t.Errorf("outer stats = %+v", stats[0])
	}
	if stats[1].Name != "module" || !strings.Contains(stats[1].TTL, "unbounded") {
		t.Errorf("inner stats = %+v", stats[1])
	}
}
