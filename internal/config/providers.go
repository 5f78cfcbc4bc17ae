package config

import "sort"

// EndpointPreset is a named regional base URL of a provider
type EndpointPreset struct {
	Label   string
	BaseURL string
}

// Provider describes an OpenAI Responses-compatible advisor backend
type Provider struct {
	Name           string
	DisplayName    string
	DefaultBaseURL string
	DefaultModel   string
	APIKeyEnv      string
	Endpoints      []EndpointPreset
}

var providers = map[string]Provider{
	"openai": {
		Name:           "openai",
		DisplayName:    "OpenAI",
		DefaultBaseURL: "https://api.openai.com/v1",
		DefaultModel:   "gpt-5.1-codex-mini",
		APIKeyEnv:      "OPENAI_API_KEY",
	},
	"openrouter": {
		Name:           "openrouter",
		DisplayName:    "OpenRouter",
		DefaultBaseURL: "https://openrouter.ai/api/v1",
		DefaultModel:   "openai/gpt-5.1-codex-mini",
		APIKeyEnv:      "OPENROUTER_API_KEY",
	},
	"kimi": {
		Name:           "kimi",
		DisplayName:    "Kimi",
		DefaultBaseURL: "https://api.moonshot.ai/v1",
		DefaultModel:   "kimi-for-coding",
		APIKeyEnv:      "MOONSHOT_API_KEY",
		Endpoints: []EndpointPreset{
			{Label: "Global", BaseURL: "https://api.moonshot.ai/v1"},
			{Label: "CN", BaseURL: "https://api.kimi.com/coding/v1"},
		},
	},
	"minimax": {
		Name:           "minimax",
		DisplayName:    "MiniMax",
		DefaultBaseURL: "https://api.minimax.io/v1",
		DefaultModel:   "MiniMax-M2.1",
		APIKeyEnv:      "MINIMAX_API_KEY",
		Endpoints: []EndpointPreset{
			{Label: "Global", BaseURL: "https://api.minimax.io/v1"},
			{Label: "CN", BaseURL: "https://api.minimaxi.com/v1"},
		},
	},
}

// LookupProvider finds a provider preset by name
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[name]
	return p, ok
}

// ProviderNames lists known providers, sorted
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
