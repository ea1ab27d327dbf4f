// Package types provides shared data models for storyweaver.
package types

import (
	"strings"
	"time"
)

// StoryParameters is the full set of user inputs that shape a generation
// request. A parameter set is bound to a request wholesale; refinements
// produce a new value rather than mutating fields in place.
type StoryParameters struct {
	Genre     string `yaml:"genre" json:"genre"`
	Tone      string `yaml:"tone" json:"tone"`
	Character string `yaml:"character" json:"character"`
	Setting   string `yaml:"setting" json:"setting"`
	WordLimit string `yaml:"word_limit" json:"word_limit"`

	// LastCustomChange records the most recently applied free-form
	// refinement instruction, if any.
	LastCustomChange string `yaml:"last_custom_change,omitempty" json:"last_custom_change,omitempty"`
}

// Genres available for selection.
var Genres = []string{
	"Science Fiction",
	"Fantasy",
	"Horror",
	"Mystery",
	"Romance",
	"Adventure",
	"Historical Fiction",
	"Thriller",
	"Drama",
	"Comedy",
	"Action",
}

// Tones available for selection.
var Tones = []string{
	"Adventurous",
	"Emotional",
	"Humorous",
	"Dark",
	"Mysterious",
	"Romantic",
	"Philosophical",
}

// GlobalConfig is the user-wide configuration at ~/.config/storyweaver/config.yaml.
type GlobalConfig struct {
	Version    int                        `yaml:"version"`
	Providers  map[string]*ProviderConfig `yaml:"providers"`
	Defaults   DefaultsConfig             `yaml:"defaults"`
	Generation GenerationConfig           `yaml:"generation"`
	Logging    LoggingConfig              `yaml:"logging"`
}

// ProviderConfig holds API configuration for an inference provider.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url,omitempty"`
}

// DefaultsConfig specifies default settings.
type DefaultsConfig struct {
	Provider     string `yaml:"provider"`
	ExportFormat string `yaml:"export_format"`
}

// GenerationConfig controls the inference request policy.
type GenerationConfig struct {
	// TimeoutSeconds bounds a single provider call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxAttempts is the total number of tries per request, including
	// the first. 2 means one retry on a transient failure.
	MaxAttempts int `yaml:"max_attempts"`
}

// LoggingConfig specifies logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DefaultGlobalConfig returns a new GlobalConfig with sensible defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:   1,
		Providers: make(map[string]*ProviderConfig),
		Defaults: DefaultsConfig{
			Provider:     "huggingface",
			ExportFormat: "pdf",
		},
		Generation: GenerationConfig{
			TimeoutSeconds: 45,
			MaxAttempts:    2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Timeout returns the configured per-request timeout as a duration.
func (g GenerationConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 45 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Validate reports whether the required free-text parameters are present.
// Selection fields (genre, tone, word limit) come from fixed option lists
// and are checked against those lists at prompt-build time instead.
func (p StoryParameters) Validate() []string {
	var missing []string
	if strings.TrimSpace(p.Character) == "" {
		missing = append(missing, "character")
	}
	if strings.TrimSpace(p.Setting) == "" {
		missing = append(missing, "setting")
	}
	return missing
}
