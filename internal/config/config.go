package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for devsetup.
type Config struct {
	Advisor AdvisorConfig `mapstructure:"advisor"`
	Shell   ShellConfig   `mapstructure:"shell"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	State   StateConfig   `mapstructure:"state"`
	Log     LogConfig     `mapstructure:"log"`
}

type AdvisorConfig struct {
	// Provider selects base URL, model and key variable defaults.
	Provider string `mapstructure:"provider"`
	// Endpoint picks a regional preset of the provider, e.g. "cn".
	Endpoint  string        `mapstructure:"endpoint"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	APIKeyEnv string        `mapstructure:"api_key_env"`
	Disabled  bool          `mapstructure:"disabled"`
}

type ShellConfig struct {
	Path        string        `mapstructure:"path"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	AskpassPath string        `mapstructure:"askpass_path"`
}

type CatalogConfig struct {
	// Path is a catalog YAML file; empty means the built-in catalog.
	Path         string `mapstructure:"path"`
	Architecture string `mapstructure:"architecture"`
}

type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Verbose bool   `mapstructure:"verbose"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the DEVSETUP_ prefix (e.g. DEVSETUP_ADVISOR_MODEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DEVSETUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	dir, err := expandHome(cfg.State.Dir)
	if err != nil {
		return nil, err
	}
	cfg.State.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("advisor.provider", "openai")
	v.SetDefault("advisor.endpoint", "")
	v.SetDefault("advisor.base_url", "")
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.timeout", 30*time.Second)
	v.SetDefault("advisor.api_key_env", "")
	v.SetDefault("advisor.disabled", false)

	v.SetDefault("shell.path", "")
	v.SetDefault("shell.grace_period", 2*time.Second)
	v.SetDefault("shell.askpass_path", "")

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.architecture", "")

	v.SetDefault("state.dir", "~/.devsetup")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.verbose", false)
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if _, ok := LookupProvider(c.Advisor.Provider); !ok {
		return fmt.Errorf("unknown advisor provider %q (known: %s)", c.Advisor.Provider, strings.Join(ProviderNames(), ", "))
	}
	if _, err := c.Advisor.ResolvedBaseURL(); err != nil {
		return err
	}
	if c.Advisor.Timeout <= 0 {
		return fmt.Errorf("advisor.timeout must be positive, got %s", c.Advisor.Timeout)
	}
	if c.Shell.GracePeriod <= 0 {
		return fmt.Errorf("shell.grace_period must be positive, got %s", c.Shell.GracePeriod)
	}
	return nil
}

// ResolvedBaseURL returns the explicit base URL, else the endpoint preset,
// else the provider default.
func (a AdvisorConfig) ResolvedBaseURL() (string, error) {
	if a.BaseURL != "" {
		return strings.TrimRight(a.BaseURL, "/"), nil
	}
	p, ok := LookupProvider(a.Provider)
	if !ok {
		return "", fmt.Errorf("unknown advisor provider %q", a.Provider)
	}
	if a.Endpoint == "" {
		return p.DefaultBaseURL, nil
	}
	for _, e := range p.Endpoints {
		if strings.EqualFold(e.Label, a.Endpoint) {
			return e.BaseURL, nil
		}
	}
	return "", fmt.Errorf("provider %s has no endpoint preset %q", p.Name, a.Endpoint)
}

// ResolvedModel returns the configured model or the provider default
func (a AdvisorConfig) ResolvedModel() string {
	if a.Model != "" {
		return a.Model
	}
	if p, ok := LookupProvider(a.Provider); ok {
		return p.DefaultModel
	}
	return ""
}

// ResolvedAPIKeyEnv returns the environment variable holding the API key
func (a AdvisorConfig) ResolvedAPIKeyEnv() string {
	if a.APIKeyEnv != "" {
		return a.APIKeyEnv
	}
	if p, ok := LookupProvider(a.Provider); ok {
		return p.APIKeyEnv
	}
	return "OPENAI_API_KEY"
}

// LogDir is where session logs are written
func (s StateConfig) LogDir() string {
	return filepath.Join(s.Dir, "logs")
}

// DBPath is the run history database
func (s StateConfig) DBPath() string {
	return filepath.Join(s.Dir, "state.db")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
