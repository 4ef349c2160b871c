package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ObiAU/equitynews/internal/models"
	"github.com/ObiAU/equitynews/internal/summary"
)

func testReport() *summary.Report {
	return &summary.Report{
		Query:       "Acme Corp",
		MaxArticles: 5,
		Articles: []models.Article{
			{Title: "Acme beats", URL: "https://example.com/a", Source: models.Source{Name: "Reuters"}},
			{Source: models.Source{Name: "FT"}},
		},
		TokenEstimate: 9100,
		CostWarning:   true,
		Summary:       "Acme had a strong quarter.",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    outputFormat
		wantErr bool
	}{
		{"text", formatText, false},
		{"JSON", formatJSON, false},
		{"yaml", formatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRenderReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, testReport(), formatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Fetched articles (2)",
		"Acme beats",
		"<no title>",
		"https://example.com/a",
		"Estimated tokens for input (approx): 9100",
		"Large token estimate",
		"Acme had a strong quarter.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReport_TextTruncatesList(t *testing.T) {
	r := testReport()
	r.Articles = make([]models.Article, 35)
	for i := range r.Articles {
		r.Articles[i].Title = "t"
	}

	out := renderText(r)
	if !strings.Contains(out, "and 5 more") {
		t.Errorf("long list not truncated:\n%s", out)
	}
}

func TestRenderReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, testReport(), formatJSON); err != nil {
		t.Fatal(err)
	}
	var got summary.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Summary != "Acme had a strong quarter." || len(got.Articles) != 2 || !got.CostWarning {
		t.Errorf("decoded = %+v", got)
	}
}

func TestRenderReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, testReport(), formatYAML); err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got["query"] != "Acme Corp" || got["token_estimate"] != 9100 {
		t.Errorf("decoded = %v", got)
	}
}
