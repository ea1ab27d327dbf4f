package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyweaver/pkg/types"
)

func writeConfig(t *testing.T, content string) *ConfigManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return NewConfigManagerAt(path)
}

// TestLoadGlobalConfigDefaults tests defaults for a missing file.
func TestLoadGlobalConfigDefaults(t *testing.T) {
	cm := NewConfigManagerAt(filepath.Join(t.TempDir(), "missing.yaml"))

	config, err := cm.LoadGlobalConfig()
	require.NoError(t, err)

	assert.Equal(t, "huggingface", config.Defaults.Provider)
	assert.Equal(t, "pdf", config.Defaults.ExportFormat)
	assert.Equal(t, 45, config.Generation.TimeoutSeconds)
	assert.Equal(t, 2, config.Generation.MaxAttempts)
	assert.Equal(t, "info", config.Logging.Level)
	assert.NotNil(t, config.Providers)
}

// TestLoadGlobalConfigParsesYAML tests reading a populated file.
func TestLoadGlobalConfigParsesYAML(t *testing.T) {
	cm := writeConfig(t, `
version: 1
providers:
  huggingface:
    api_key: hf_secret
    default_model: mistralai/Mistral-7B-Instruct-v0.3
defaults:
  provider: huggingface
  export_format: txt
generation:
  timeout_seconds: 30
  max_attempts: 3
logging:
  level: debug
`)

	config, err := cm.LoadGlobalConfig()
	require.NoError(t, err)

	assert.Equal(t, "hf_secret", config.Providers["huggingface"].APIKey)
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.3", config.Providers["huggingface"].DefaultModel)
	assert.Equal(t, "txt", config.Defaults.ExportFormat)
	assert.Equal(t, 30, config.Generation.TimeoutSeconds)
	assert.Equal(t, 3, config.Generation.MaxAttempts)
	assert.Equal(t, "debug", config.Logging.Level)
}

// TestLoadGlobalConfigExpandsEnvKeys tests ${ENV_VAR} API key expansion.
func TestLoadGlobalConfigExpandsEnvKeys(t *testing.T) {
	t.Setenv("HUGGINGFACE_API_KEY", "hf_from_env")

	cm := writeConfig(t, `
providers:
  huggingface:
    api_key: ${HUGGINGFACE_API_KEY}
`)

	config, err := cm.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "hf_from_env", config.Providers["huggingface"].APIKey)
}

// TestLoadGlobalConfigInvalidYAML tests the parse failure path.
func TestLoadGlobalConfigInvalidYAML(t *testing.T) {
	cm := writeConfig(t, "providers: [not: a: map")

	_, err := cm.LoadGlobalConfig()
	assert.Error(t, err)
}

// TestSaveGlobalConfigRoundTrip tests the atomic save and reload.
func TestSaveGlobalConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cm := NewConfigManagerAt(path)

	config := types.DefaultGlobalConfig()
	config.Providers["openai"] = &types.ProviderConfig{
		APIKey:       "sk-test",
		DefaultModel: "gpt-4o-mini",
	}
	config.Defaults.Provider = "openai"

	require.NoError(t, cm.SaveGlobalConfig(config))
	require.FileExists(t, path)

	reloaded, err := NewConfigManagerAt(path).LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", reloaded.Providers["openai"].APIKey)
	assert.Equal(t, "openai", reloaded.Defaults.Provider)
}

// TestResolveCredential tests config and environment credential lookup.
func TestResolveCredential(t *testing.T) {
	t.Run("from config", func(t *testing.T) {
		cm := writeConfig(t, `
providers:
  huggingface:
    api_key: hf_configured
`)
		key, err := cm.ResolveCredential("huggingface")
		require.NoError(t, err)
		assert.Equal(t, "hf_configured", key)
	})

	t.Run("from environment fallback", func(t *testing.T) {
		t.Setenv("HUGGINGFACE_API_KEY", "hf_env_fallback")
		cm := NewConfigManagerAt(filepath.Join(t.TempDir(), "missing.yaml"))

		key, err := cm.ResolveCredential("huggingface")
		require.NoError(t, err)
		assert.Equal(t, "hf_env_fallback", key)
	})

	t.Run("missing is fatal", func(t *testing.T) {
		t.Setenv("HUGGINGFACE_API_KEY", "")
		cm := NewConfigManagerAt(filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := cm.ResolveCredential("huggingface")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})
}
