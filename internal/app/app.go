package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"storyweaver/internal/generate"
	"storyweaver/internal/generate/adapters"
)

// App represents the main application instance.
type App struct {
	Config *ConfigManager
	Logger *log.Logger

	logCloser io.Closer
}

// New creates a new application instance, loading configuration and
// opening the log file.
func New() (*App, error) {
	configManager, err := NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	globalConfig, err := configManager.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	logger, closer, err := NewLogger(globalConfig.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return &App{
		Config:    configManager,
		Logger:    logger,
		logCloser: closer,
	}, nil
}

// NewProvider builds the inference provider named in the configuration.
// A missing credential fails here, before any UI is shown.
func (a *App) NewProvider(ctx context.Context, providerName string) (generate.Provider, error) {
	config, err := a.Config.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if providerName == "" {
		providerName = config.Defaults.Provider
	}

	apiKey, err := a.Config.ResolveCredential(providerName)
	if err != nil {
		return nil, err
	}

	providerConfig, err := a.Config.GetProviderConfig(providerName)
	if err != nil {
		return nil, err
	}

	switch providerName {
	case "huggingface":
		var opts []adapters.HuggingFaceOption
		if providerConfig.BaseURL != "" {
			opts = append(opts, adapters.WithHFBaseURL(providerConfig.BaseURL))
		}
		opts = append(opts,
			adapters.WithHFTimeout(config.Generation.Timeout()),
			adapters.WithHFMaxAttempts(config.Generation.MaxAttempts),
			adapters.WithHFLogger(a.Logger),
		)
		return adapters.NewHuggingFaceAdapter(apiKey, providerConfig.DefaultModel, opts...)
	case "openai":
		var opts []adapters.OpenAIOption
		if providerConfig.BaseURL != "" {
			opts = append(opts, adapters.WithOpenAIBaseURL(providerConfig.BaseURL))
		}
		return adapters.NewOpenAIAdapter(apiKey, providerConfig.DefaultModel, opts...)
	case "gemini":
		return adapters.NewGeminiAdapter(ctx, apiKey, providerConfig.DefaultModel)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, providerName)
	}
}

// Close cleans up application resources.
func (a *App) Close() error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}
