package adapters

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"storyweaver/internal/generate"
)

// geminiContextLimits maps model name prefixes to context window sizes.
var geminiContextLimits = map[string]int{
	"gemini-2.5-pro":   1048576,
	"gemini-2.5-flash": 1048576,
	"gemini-2.0-flash": 1048576,
}

const defaultGeminiContextTokens = 128000

// GeminiAdapter implements the Provider interface for Google's Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a new adapter for Google's Gemini API.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, generate.ErrInvalidAPIKey
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAdapter{
		client: client,
		model:  model,
	}, nil
}

// Generate executes the request as a single-turn content generation.
func (a *GeminiAdapter) Generate(ctx context.Context, req generate.Request) (string, error) {
	if req.Sampling == (generate.Sampling{}) {
		req.Sampling = generate.DefaultSampling()
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Sampling.Temperature)),
		TopP:        genai.Ptr(float32(req.Sampling.TopP)),
	}
	if req.MaxNewTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxNewTokens)
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return "", a.wrapError(err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates in response", generate.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	text := sb.String()
	if text == "" {
		return "", generate.ErrEmptyCompletion
	}

	return text, nil
}

// Capabilities returns the provider's capabilities.
func (a *GeminiAdapter) Capabilities() generate.Capabilities {
	limit := defaultGeminiContextTokens
	for prefix, l := range geminiContextLimits {
		if strings.HasPrefix(a.model, prefix) {
			limit = l
			break
		}
	}
	return generate.Capabilities{
		Model:            a.model,
		MaxContextTokens: limit,
	}
}

// Close releases resources held by the adapter.
func (a *GeminiAdapter) Close() error {
	// The genai client has no Close method.
	return nil
}

// wrapError maps Gemini errors onto the package error types by pattern,
// since the SDK does not expose typed errors for all failure modes.
func (a *GeminiAdapter) wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "API key"):
		return fmt.Errorf("%w: %s", generate.ErrInvalidAPIKey, errStr)
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "404"):
		return fmt.Errorf("%w: %s", generate.ErrModelNotFound, errStr)
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "429"):
		return fmt.Errorf("%w: %s", generate.ErrRateLimited, errStr)
	default:
		return fmt.Errorf("%w: %s", generate.ErrAPIError, errStr)
	}
}

// Verify GeminiAdapter implements Provider interface.
var _ generate.Provider = (*GeminiAdapter)(nil)
