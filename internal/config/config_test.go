package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests here share process-global environment variables, so none run in parallel.

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Advisor.Provider)
	assert.Equal(t, 30*time.Second, cfg.Advisor.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Shell.GracePeriod)
	assert.Equal(t, "", cfg.Catalog.Path)
	assert.Equal(t, filepath.Join(home, ".devsetup"), cfg.State.Dir)
	assert.Equal(t, filepath.Join(home, ".devsetup", "logs"), cfg.State.LogDir())
	assert.Equal(t, filepath.Join(home, ".devsetup", "state.db"), cfg.State.DBPath())
	assert.Equal(t, "info", cfg.Log.Level)

	base, err := cfg.Advisor.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", base)
	assert.Equal(t, "gpt-5.1-codex-mini", cfg.Advisor.ResolvedModel())
	assert.Equal(t, "OPENAI_API_KEY", cfg.Advisor.ResolvedAPIKeyEnv())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DEVSETUP_ADVISOR_PROVIDER", "kimi")
	t.Setenv("DEVSETUP_ADVISOR_ENDPOINT", "cn")
	t.Setenv("DEVSETUP_SHELL_GRACE_PERIOD", "5s")
	t.Setenv("DEVSETUP_STATE_DIR", "/tmp/devsetup-test")

	cfg, err := Load("")
	require.NoError(t, err)

	base, err := cfg.Advisor.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://api.kimi.com/coding/v1", base)
	assert.Equal(t, "kimi-for-coding", cfg.Advisor.ResolvedModel())
	assert.Equal(t, "MOONSHOT_API_KEY", cfg.Advisor.ResolvedAPIKeyEnv())
	assert.Equal(t, 5*time.Second, cfg.Shell.GracePeriod)
	assert.Equal(t, "/tmp/devsetup-test", cfg.State.Dir)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devsetup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
advisor:
  provider: openrouter
  base_url: https://proxy.internal/v1/
  model: custom-model
  api_key_env: PROXY_KEY
catalog:
  path: ./catalog.yaml
  architecture: x86_64
log:
  level: debug
  verbose: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	base, err := cfg.Advisor.ResolvedBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.internal/v1", base)
	assert.Equal(t, "custom-model", cfg.Advisor.ResolvedModel())
	assert.Equal(t, "PROXY_KEY", cfg.Advisor.ResolvedAPIKeyEnv())
	assert.Equal(t, "./catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, "x86_64", cfg.Catalog.Architecture)
	assert.True(t, cfg.Log.Verbose)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_UnknownProvider(t *testing.T) {
	t.Setenv("DEVSETUP_ADVISOR_PROVIDER", "acme")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown advisor provider")
}

func TestLoad_UnknownEndpoint(t *testing.T) {
	t.Setenv("DEVSETUP_ADVISOR_PROVIDER", "openai")
	t.Setenv("DEVSETUP_ADVISOR_ENDPOINT", "cn")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint preset")
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"kimi", "minimax", "openai", "openrouter"}, ProviderNames())

	minimax, ok := LookupProvider("minimax")
	require.True(t, ok)
	assert.Equal(t, "MiniMax-M2.1", minimax.DefaultModel)
	assert.Equal(t, "https://api.minimaxi.com/v1", minimax.Endpoints[1].BaseURL)
}
