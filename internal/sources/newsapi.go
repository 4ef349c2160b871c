package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ObiAU/equitynews/internal/models"
)

const (
	MinArticles = 5
	MaxArticles = 100

	DefaultNewsAPIBaseURL = "https://newsapi.org/v2"

	removedPlaceholder = "[Removed]"
)

var ErrMissingAPIKey = errors.New("news API key is not configured")

type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type NewsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []models.Article `json:"articles"`
}

func NewNewsAPIClient(apiKey, baseURL string) *NewsAPIClient {
	if baseURL == "" {
		baseURL = DefaultNewsAPIBaseURL
	}
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ClampArticles bounds a requested article count to [MinArticles, MaxArticles].
func ClampArticles(n int) int {
	if n < MinArticles {
		return MinArticles
	}
	if n > MaxArticles {
		return MaxArticles
	}
	return n
}

// FetchArticles searches NewsAPI for query and returns at most limit
// articles, newest first. No matches is an empty slice, not an error.
func (c *NewsAPIClient) FetchArticles(ctx context.Context, query string, limit int) ([]models.Article, error) {
	if c.apiKey == "" {
		return nil, &FetchError{Source: c.GetName(), Err: ErrMissingAPIKey}
	}

	limit = ClampArticles(limit)

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Source: c.GetName(), Err: err}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: c.GetName(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var apiResp NewsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &FetchError{Source: c.GetName(), StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if apiResp.Status != "ok" {
		return nil, &FetchError{
			Source:     c.GetName(),
			StatusCode: resp.StatusCode,
			Code:       apiResp.Code,
			Message:    apiResp.Message,
		}
	}

	articles := make([]models.Article, 0, len(apiResp.Articles))
	for _, article := range apiResp.Articles {
		if article.Title == removedPlaceholder {
			continue
		}
		articles = append(articles, article)
		if len(articles) >= limit {
			break
		}
	}

	return articles, nil
}

func (c *NewsAPIClient) statusError(resp *http.Response) *FetchError {
	fetchErr := &FetchError{Source: c.GetName(), StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiResp NewsAPIResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Message != "" {
		fetchErr.Code = apiResp.Code
		fetchErr.Message = apiResp.Message
		return fetchErr
	}

	fetchErr.Message = strings.TrimSpace(string(body))
	return fetchErr
}

func (c *NewsAPIClient) GetName() string {
	return "newsapi"
}
