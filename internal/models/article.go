package models

import (
	"context"
	"time"
)

// Article is one result record from the news search API. Fields the API
// omits or sends as null are left empty.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NewsSource interface {
	FetchArticles(ctx context.Context, query string, limit int) ([]Article, error)
	GetName() string
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
