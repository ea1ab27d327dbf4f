// Package adapters provides inference provider implementations.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"

	"storyweaver/internal/generate"
)

const (
	defaultHFBaseURL = "https://api-inference.huggingface.co"
	defaultHFModel   = "meta-llama/Llama-3.2-3B-Instruct"

	defaultTimeout     = 45 * time.Second
	defaultMaxAttempts = 2
	defaultRetryDelay  = 2 * time.Second

	// Conservative context window for the default instruct model.
	defaultHFContextTokens = 8192
)

// HuggingFaceAdapter implements the Provider interface for the Hugging Face
// serverless inference API (text-generation task).
type HuggingFaceAdapter struct {
	client      *http.Client
	baseURL     string
	model       string
	apiKey      string
	maxAttempts int
	retryDelay  time.Duration
	logger      *log.Logger
}

// HuggingFaceOption configures a HuggingFaceAdapter.
type HuggingFaceOption func(*HuggingFaceAdapter)

// WithHFBaseURL sets a custom API base URL.
func WithHFBaseURL(baseURL string) HuggingFaceOption {
	return func(a *HuggingFaceAdapter) {
		a.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHFTimeout sets the per-request timeout.
func WithHFTimeout(timeout time.Duration) HuggingFaceOption {
	return func(a *HuggingFaceAdapter) {
		a.client.Timeout = timeout
	}
}

// WithHFMaxAttempts sets the total number of tries per request, including
// the first. Values below 1 are treated as 1.
func WithHFMaxAttempts(attempts int) HuggingFaceOption {
	return func(a *HuggingFaceAdapter) {
		if attempts < 1 {
			attempts = 1
		}
		a.maxAttempts = attempts
	}
}

// WithHFHTTPClient sets a custom HTTP client.
func WithHFHTTPClient(client *http.Client) HuggingFaceOption {
	return func(a *HuggingFaceAdapter) {
		a.client = client
	}
}

// WithHFLogger sets the logger used for request diagnostics.
func WithHFLogger(logger *log.Logger) HuggingFaceOption {
	return func(a *HuggingFaceAdapter) {
		a.logger = logger
	}
}

// NewHuggingFaceAdapter creates a new adapter for the Hugging Face
// inference API.
func NewHuggingFaceAdapter(apiKey, model string, opts ...HuggingFaceOption) (*HuggingFaceAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", generate.ErrInvalidAPIKey)
	}
	if model == "" {
		model = defaultHFModel
	}

	adapter := &HuggingFaceAdapter{
		client:      &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultHFBaseURL,
		model:       model,
		apiKey:      apiKey,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      log.Default(),
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter, nil
}

// hfRequest is the text-generation request body.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

// hfCompletion is one element of the response array.
type hfCompletion struct {
	GeneratedText string `json:"generated_text"`
}

type hfErrorResponse struct {
	Error string `json:"error"`
}

// Generate executes the request and returns the raw completion text.
// Transient failures (429, 5xx, transport errors) are retried once with a
// short delay; everything else fails immediately.
func (a *HuggingFaceAdapter) Generate(ctx context.Context, req generate.Request) (string, error) {
	if req.Sampling == (generate.Sampling{}) {
		req.Sampling = generate.DefaultSampling()
	}

	return retry.DoWithData(
		func() (string, error) {
			return a.generateOnce(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(uint(a.maxAttempts)),
		retry.Delay(a.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			retryable := generate.IsTransient(err)
			if retryable {
				a.logger.Warn("transient inference failure, retrying", "model", a.model, "err", err)
			}
			return retryable
		}),
	)
}

func (a *HuggingFaceAdapter) generateOnce(ctx context.Context, req generate.Request) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			MaxNewTokens: req.MaxNewTokens,
			Temperature:  req.Sampling.Temperature,
			TopP:         req.Sampling.TopP,
			DoSample:     req.Sampling.DoSample,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.baseURL + "/models/" + a.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	// Ask the API to queue the request while a cold model loads instead of
	// answering 503 immediately.
	httpReq.Header.Set("x-wait-for-model", "true")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("request timed out: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("request canceled: %w", err)
		}
		return "", fmt.Errorf("%w: %v", generate.ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", a.handleErrorResponse(resp)
	}

	var completions []hfCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completions); err != nil {
		return "", fmt.Errorf("%w: %v", generate.ErrMalformedResponse, err)
	}

	if len(completions) == 0 {
		return "", fmt.Errorf("%w: empty response array", generate.ErrMalformedResponse)
	}

	text := completions[0].GeneratedText
	if text == "" {
		return "", generate.ErrEmptyCompletion
	}

	a.logger.Debug("inference complete",
		"model", a.model,
		"prompt_bytes", len(req.Prompt),
		"completion_bytes", len(text),
		"elapsed", time.Since(start),
	)

	return text, nil
}

// handleErrorResponse converts a non-200 response into a status error.
func (a *HuggingFaceAdapter) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(body))
	var errResp hfErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &generate.APIStatusError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("inference API returned %d: %s", resp.StatusCode, message),
	}
}

// Capabilities returns the provider's capabilities.
func (a *HuggingFaceAdapter) Capabilities() generate.Capabilities {
	return generate.Capabilities{
		Model:            a.model,
		MaxContextTokens: defaultHFContextTokens,
	}
}

// Close releases resources held by the adapter.
func (a *HuggingFaceAdapter) Close() error {
	return nil
}

// Model returns the model identifier requests are sent to.
func (a *HuggingFaceAdapter) Model() string {
	return a.model
}

// Verify HuggingFaceAdapter implements Provider interface.
var _ generate.Provider = (*HuggingFaceAdapter)(nil)
