// Package token provides token counting for prompt-size management.
package token

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Default encoding for fallback.
const defaultEncoding = "cl100k_base"

// Counter wraps a tiktoken encoder for token counting operations.
type Counter struct {
	encoder  *tiktoken.Tiktoken
	encoding string
}

// NewCounter creates a new token counter with the specified encoding.
// Falls back to cl100k_base if the specified encoding is not found.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
		encoding = defaultEncoding
	}

	return &Counter{
		encoder:  encoder,
		encoding: encoding,
	}, nil
}

// Encoding returns the current encoding name.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// Truncate truncates text to fit within maxTokens, keeping the beginning.
// Text already within the limit is returned unchanged.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.encoder.Decode(tokens[:maxTokens])
}

// FitsContext reports whether a prompt plus its completion budget fits a
// provider's context window.
func (c *Counter) FitsContext(promptText string, maxNewTokens, contextTokens int) bool {
	if contextTokens <= 0 {
		return true
	}
	return c.Count(promptText)+maxNewTokens <= contextTokens
}

// Estimate provides a quick token estimate without encoding, using the
// rough four-characters-per-token heuristic for English text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	runeCount := utf8.RuneCountInString(text)
	return (runeCount + 3) / 4
}
