package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultModel = "gpt-4o-mini"

	summaryMaxTokens = 1200
)

const systemPrompt = `You are an equity research assistant. You will receive a list of recent news headlines with short descriptions, separated by blank lines.
Write a concise briefing for an equity analyst:
- the key developments, grouped by company or theme
- likely impact on revenue, margins, guidance or valuation where the news supports it
- notable risks and open questions
Do not invent facts that are not in the articles. Use short paragraphs or bullet points.`

var (
	ErrMissingAPIKey = errors.New("OpenAI API key is not configured")
	ErrEmptySummary  = errors.New("model returned an empty summary")
)

type OpenAIClient struct {
	client openai.Client
	model  string
	apiKey string
}

type Options struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClient builds a summarizer. SDK retries are disabled: a failed
// call is reported once.
func NewOpenAIClient(apiKey string, opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
		apiKey: apiKey,
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

// Summarize sends the concatenated article text as user content under the
// equity research system prompt and returns the model's reply.
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", &SummarizationError{Model: c.model, Err: ErrMissingAPIKey}
	}

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(summaryMaxTokens),
	})
	if err != nil {
		sumErr := &SummarizationError{Model: c.model, Err: fmt.Errorf("openai request failed: %w", err)}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			sumErr.StatusCode = apiErr.StatusCode
		}
		return "", sumErr
	}

	if len(response.Choices) == 0 {
		return "", &SummarizationError{Model: c.model, Err: fmt.Errorf("no response from openai")}
	}

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", &SummarizationError{Model: c.model, Err: ErrEmptySummary}
	}

	return content, nil
}
