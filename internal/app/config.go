// Package app provides application lifecycle management.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"storyweaver/pkg/types"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingAPIKey means the selected provider has no credential. This
	// is a fatal startup condition, not a runtime error.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Environment variables consulted when a provider has no configured key.
var providerKeyEnvVars = map[string]string{
	"huggingface": "HUGGINGFACE_API_KEY",
	"openai":      "OPENAI_API_KEY",
	"gemini":      "GEMINI_API_KEY",
}

// ConfigManager handles the global configuration file.
type ConfigManager struct {
	globalConfigPath string
	globalConfig     *types.GlobalConfig
}

// NewConfigManager creates a new configuration manager.
func NewConfigManager() (*ConfigManager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	return &ConfigManager{
		globalConfigPath: filepath.Join(configDir, "config.yaml"),
	}, nil
}

// NewConfigManagerAt creates a manager reading a specific config file.
func NewConfigManagerAt(path string) *ConfigManager {
	return &ConfigManager{globalConfigPath: path}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "storyweaver"), nil
}

// LoadGlobalConfig loads the global configuration, returning defaults when
// the file does not exist. The loaded value is cached.
func (cm *ConfigManager) LoadGlobalConfig() (*types.GlobalConfig, error) {
	if cm.globalConfig != nil {
		return cm.globalConfig, nil
	}

	data, err := os.ReadFile(cm.globalConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			cm.globalConfig = types.DefaultGlobalConfig()
			return cm.globalConfig, nil
		}
		return nil, fmt.Errorf("failed to read global config: %w", err)
	}

	var config types.GlobalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse global config: %w", err)
	}
	if config.Providers == nil {
		config.Providers = make(map[string]*types.ProviderConfig)
	}

	// Expand environment variables in API keys
	for name, provider := range config.Providers {
		if strings.HasPrefix(provider.APIKey, "${") && strings.HasSuffix(provider.APIKey, "}") {
			envVar := provider.APIKey[2 : len(provider.APIKey)-1]
			provider.APIKey = os.Getenv(envVar)
			config.Providers[name] = provider
		}
	}

	cm.globalConfig = &config
	return cm.globalConfig, nil
}

// SaveGlobalConfig saves the global configuration.
func (cm *ConfigManager) SaveGlobalConfig(config *types.GlobalConfig) error {
	dir := filepath.Dir(cm.globalConfigPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicWrite(cm.globalConfigPath, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	cm.globalConfig = config
	return nil
}

// ResolveCredential returns the API key for a provider, falling back to the
// provider's conventional environment variable when the config has none.
func (cm *ConfigManager) ResolveCredential(providerName string) (string, error) {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return "", err
	}

	if provider, ok := config.Providers[providerName]; ok && provider.APIKey != "" {
		return provider.APIKey, nil
	}
	if envVar, ok := providerKeyEnvVars[providerName]; ok {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w for provider %q", ErrMissingAPIKey, providerName)
}

// GetProviderConfig returns the configuration for a specific provider, or
// an empty config when none is stored.
func (cm *ConfigManager) GetProviderConfig(providerName string) (*types.ProviderConfig, error) {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	provider, ok := config.Providers[providerName]
	if !ok {
		return &types.ProviderConfig{}, nil
	}
	return provider, nil
}

// atomicWrite writes data to a file atomically using temp file + rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		// Clean up temp file on error
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	tmpPath = "" // Prevent cleanup since rename succeeded
	return nil
}
