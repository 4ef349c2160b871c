package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/ObiAU/equitynews/internal/summary"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

const listedArticles = 30

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	sourceStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: text, json, yaml)", s)
	}
}

func renderReport(w io.Writer, r *summary.Report, format outputFormat) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderText(r))
		return err
	}
}

func renderText(r *summary.Report) string {
	var sb strings.Builder

	sb.WriteString(headingStyle.Render(fmt.Sprintf("Fetched articles (%d)", len(r.Articles))))
	sb.WriteString("\n")
	for i, a := range r.Articles {
		if i == listedArticles {
			fmt.Fprintf(&sb, "  … and %d more\n", len(r.Articles)-listedArticles)
			break
		}
		title := a.Title
		if title == "" {
			title = "<no title>"
		}
		fmt.Fprintf(&sb, "- %s — %s\n", title, sourceStyle.Render(a.Source.Name))
		if a.URL != "" {
			fmt.Fprintf(&sb, "  %s\n", a.URL)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("Estimated tokens for input (approx): %d", r.TokenEstimate)))
	sb.WriteString("\n")
	if r.CostWarning {
		sb.WriteString(warnStyle.Render("Large token estimate — consider lowering max articles to reduce OpenAI usage/cost."))
		sb.WriteString("\n")
	}

	if r.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(headingStyle.Render("Summary"))
		sb.WriteString("\n")
		sb.WriteString(r.Summary)
		sb.WriteString("\n")
	}

	return sb.String()
}
