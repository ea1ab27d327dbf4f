package adapters

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"storyweaver/internal/generate"
)

// openAIContextLimits maps model names to their context window sizes.
var openAIContextLimits = map[string]int{
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,
}

const defaultOpenAIContextTokens = 128000

// OpenAIAdapter implements the Provider interface for the OpenAI chat API
// and compatible endpoints.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*openai.ClientConfig)

// WithOpenAIBaseURL sets a custom base URL for compatible APIs.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *openai.ClientConfig) {
		c.BaseURL = baseURL
	}
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey, model string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", generate.ErrInvalidAPIKey)
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&clientConfig)
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Generate executes the request as a single-message chat completion.
func (a *OpenAIAdapter) Generate(ctx context.Context, req generate.Request) (string, error) {
	if req.Sampling == (generate.Sampling{}) {
		req.Sampling = generate.DefaultSampling()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxNewTokens,
		Temperature: float32(req.Sampling.Temperature),
		TopP:        float32(req.Sampling.TopP),
	})
	if err != nil {
		return "", a.handleError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generate.ErrMalformedResponse)
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", generate.ErrEmptyCompletion
	}

	return text, nil
}

// Capabilities returns the provider's capabilities.
func (a *OpenAIAdapter) Capabilities() generate.Capabilities {
	limit, ok := openAIContextLimits[a.model]
	if !ok {
		limit = defaultOpenAIContextTokens
	}
	return generate.Capabilities{
		Model:            a.model,
		MaxContextTokens: limit,
	}
}

// Close releases resources held by the adapter.
func (a *OpenAIAdapter) Close() error {
	return nil
}

// handleError converts go-openai errors to the package error types.
func (a *OpenAIAdapter) handleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &generate.APIStatusError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    fmt.Sprintf("OpenAI API returned %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
		}
	}

	return fmt.Errorf("%w: %v", generate.ErrAPIError, err)
}

// Verify OpenAIAdapter implements Provider interface.
var _ generate.Provider = (*OpenAIAdapter)(nil)
