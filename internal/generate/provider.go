// Package generate provides abstractions for hosted text-generation
// providers.
package generate

import (
	"context"
	"errors"
)

// Common errors returned by inference providers.
var (
	// ErrAPIError is returned when the API returns an unexpected error.
	ErrAPIError = errors.New("API error")

	// ErrRateLimited is returned when the API rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrModelNotFound is returned when the requested model is not available.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyCompletion is returned when the provider answered successfully
	// but produced no text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrMalformedResponse is returned when the response body does not have
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Sampling holds the sampling configuration sent with every request.
type Sampling struct {
	Temperature float64
	TopP        float64
	DoSample    bool
}

// DefaultSampling returns the sampling configuration used for story
// generation.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature: 0.8,
		TopP:        0.9,
		DoSample:    true,
	}
}

// Request is a single text-generation request.
type Request struct {
	// Prompt is the complete natural-language instruction.
	Prompt string

	// MaxNewTokens caps the length of the generated completion.
	MaxNewTokens int

	// Sampling controls randomness. The zero value is replaced with
	// DefaultSampling by adapters.
	Sampling Sampling
}

// Capabilities describes what a provider supports.
type Capabilities struct {
	// Model is the model identifier requests are sent to.
	Model string

	// MaxContextTokens is the maximum combined prompt and completion size.
	MaxContextTokens int
}

// Provider defines the interface for text-generation backends.
// Implementations must be safe for concurrent use and must honor
// context cancellation on Generate.
type Provider interface {
	// Generate executes the request and returns the raw completion text.
	// The returned text may echo the prompt or contain model commentary;
	// callers are expected to run it through the cleaner.
	Generate(ctx context.Context, req Request) (string, error)

	// Capabilities returns the capabilities of this provider.
	Capabilities() Capabilities

	// Close releases any resources held by the provider.
	Close() error
}

// APIStatusError carries the HTTP status of a failed provider call.
type APIStatusError struct {
	StatusCode int
	Message    string
}

func (e *APIStatusError) Error() string {
	return e.Message
}

// Unwrap maps status codes onto the package sentinel errors so callers can
// use errors.Is without inspecting codes.
func (e *APIStatusError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return ErrInvalidAPIKey
	case 404:
		return ErrModelNotFound
	case 429:
		return ErrRateLimited
	default:
		return ErrAPIError
	}
}

// IsTransient reports whether an error is worth a single retry: rate
// limiting and server-side failures, but never caller mistakes.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var statusErr *APIStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 429 || statusErr.StatusCode >= 500
	}
	return false
}
