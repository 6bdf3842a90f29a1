// Package config collects every runtime setting into one struct built
// at process start. Nothing else in the gateway inspects the
// environment directly.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"travel-agents/api_go/pkg/toolserver"
)

// Provider selects the chat-completion backend.
type Provider string

const (
	ProviderAzureOpenAI  Provider = "azure-openai"
	ProviderGitHubModels Provider = "github-models"
	ProviderDockerModels Provider = "docker-models"
	ProviderOllamaModels Provider = "ollama-models"
)

// githubModelsBaseURL is the OpenAI-compatible endpoint for GitHub Models.
const githubModelsBaseURL = "https://models.inference.ai.azure.com"

// ConfigurationError reports a missing or invalid setting for the
// selected backend. It is returned synchronously, before any
// streaming begins.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// AzureOpenAI holds Azure OpenAI credentials.
type AzureOpenAI struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// ModelEndpoint is a plain OpenAI-compatible endpoint plus model name.
type ModelEndpoint struct {
	Endpoint string
	Model    string
}

// Config is the explicit configuration struct passed by reference into
// the server and the agent set builder.
type Config struct {
	Provider    Provider
	AzureOpenAI AzureOpenAI
	GitHubToken string
	GitHubModel string
	Docker      ModelEndpoint
	Ollama      ModelEndpoint

	Host        string
	Port        int
	Temperature float64
	MaxTurns    int

	HistoryPath string

	LogLevel  string
	LogFormat string
	LogFile   string

	ToolServers []toolserver.Definition
}

// knownToolServer pairs a tool-server id with its display name and
// transport. The ids mirror the deployed tool services; this table is
// the single source of truth for which servers the gateway can reach.
type knownToolServer struct {
	id        string
	name      string
	transport toolserver.Transport
}

var knownToolServers = []knownToolServer{
	{"echo-ping", "Echo Test", toolserver.TransportHTTP},
	{"customer-query", "Customer Query", toolserver.TransportHTTP},
	{"destination-recommendation", "Destination Recommendation", toolserver.TransportHTTP},
	{"itinerary-planning", "Itinerary Planning", toolserver.TransportHTTP},
	{"web-search", "Web Search", toolserver.TransportSSE},
	{"model-inference", "Model Inference", toolserver.TransportSSE},
	{"code-evaluation", "Code Evaluation", toolserver.TransportSSE},
}

// envKey converts a tool-server id to its environment variable stem,
// e.g. "echo-ping" -> "MCP_ECHO_PING".
func envKey(id string) string {
	return "MCP_" + strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
}

// Load reads environment variables (and any bound flags) via viper and
// validates the result. A missing credential for the selected provider
// fails fast with a ConfigurationError.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	v.AutomaticEnv()

	v.SetDefault("LLM_PROVIDER", string(ProviderAzureOpenAI))
	v.SetDefault("PORT", 4000)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("TEMPERATURE", 0.2)
	v.SetDefault("MAX_TURNS", 10)
	v.SetDefault("AZURE_OPENAI_API_VERSION", "2024-02-15-preview")
	v.SetDefault("HISTORY_DB_PATH", "data/history.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	cfg := &Config{
		Provider: Provider(v.GetString("LLM_PROVIDER")),
		AzureOpenAI: AzureOpenAI{
			Endpoint:   v.GetString("AZURE_OPENAI_ENDPOINT"),
			APIKey:     v.GetString("AZURE_OPENAI_API_KEY"),
			Deployment: v.GetString("AZURE_OPENAI_DEPLOYMENT"),
			APIVersion: v.GetString("AZURE_OPENAI_API_VERSION"),
		},
		GitHubToken: v.GetString("GITHUB_TOKEN"),
		GitHubModel: v.GetString("GITHUB_MODEL"),
		Docker: ModelEndpoint{
			Endpoint: v.GetString("DOCKER_MODEL_ENDPOINT"),
			Model:    v.GetString("DOCKER_MODEL"),
		},
		Ollama: ModelEndpoint{
			Endpoint: v.GetString("OLLAMA_MODEL_ENDPOINT"),
			Model:    v.GetString("OLLAMA_MODEL"),
		},
		Host:        v.GetString("HOST"),
		Port:        v.GetInt("PORT"),
		Temperature: v.GetFloat64("TEMPERATURE"),
		MaxTurns:    v.GetInt("MAX_TURNS"),
		HistoryPath: v.GetString("HISTORY_DB_PATH"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		LogFile:     v.GetString("LOG_FILE"),
	}

	for _, ks := range knownToolServers {
		url := v.GetString(envKey(ks.id) + "_URL")
		if url == "" {
			// Not deployed in this environment; the server is simply
			// absent from the registry.
			continue
		}
		cfg.ToolServers = append(cfg.ToolServers, toolserver.Definition{
			ID:          ks.id,
			Name:        ks.name,
			URL:         url,
			Transport:   ks.transport,
			AccessToken: v.GetString(envKey(ks.id) + "_ACCESS_TOKEN"),
		})
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderAzureOpenAI:
		if c.AzureOpenAI.Endpoint == "" {
			return &ConfigurationError{Setting: "AZURE_OPENAI_ENDPOINT", Reason: "required for azure-openai provider"}
		}
		if c.AzureOpenAI.APIKey == "" {
			return &ConfigurationError{Setting: "AZURE_OPENAI_API_KEY", Reason: "required for azure-openai provider"}
		}
		if c.AzureOpenAI.Deployment == "" {
			return &ConfigurationError{Setting: "AZURE_OPENAI_DEPLOYMENT", Reason: "required for azure-openai provider"}
		}
	case ProviderGitHubModels:
		if c.GitHubToken == "" {
			return &ConfigurationError{Setting: "GITHUB_TOKEN", Reason: "required for github-models provider"}
		}
		if c.GitHubModel == "" {
			return &ConfigurationError{Setting: "GITHUB_MODEL", Reason: "required for github-models provider"}
		}
	case ProviderDockerModels:
		if c.Docker.Endpoint == "" {
			return &ConfigurationError{Setting: "DOCKER_MODEL_ENDPOINT", Reason: "required for docker-models provider"}
		}
		if c.Docker.Model == "" {
			return &ConfigurationError{Setting: "DOCKER_MODEL", Reason: "required for docker-models provider"}
		}
	case ProviderOllamaModels:
		if c.Ollama.Endpoint == "" {
			return &ConfigurationError{Setting: "OLLAMA_MODEL_ENDPOINT", Reason: "required for ollama-models provider"}
		}
		if c.Ollama.Model == "" {
			return &ConfigurationError{Setting: "OLLAMA_MODEL", Reason: "required for ollama-models provider"}
		}
	default:
		return &ConfigurationError{Setting: "LLM_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}
	return nil
}

// SupportsToolCalling reports whether the selected backend can drive
// function/tool calls. Local Ollama models generally cannot be relied
// on for parallel tool calling, so the builder falls back to a plain
// conversational agent for that provider.
func (c *Config) SupportsToolCalling() bool {
	return c.Provider != ProviderOllamaModels
}

// GitHubModelsBaseURL returns the OpenAI-compatible GitHub Models endpoint.
func GitHubModelsBaseURL() string { return githubModelsBaseURL }
