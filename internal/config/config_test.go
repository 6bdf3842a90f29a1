package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agents/api_go/pkg/toolserver"
)

func azureViper() *viper.Viper {
	v := viper.New()
	v.Set("LLM_PROVIDER", "azure-openai")
	v.Set("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	v.Set("AZURE_OPENAI_API_KEY", "key")
	v.Set("AZURE_OPENAI_DEPLOYMENT", "gpt-4o")
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(azureViper())
	require.NoError(t, err)

	assert.Equal(t, ProviderAzureOpenAI, cfg.Provider)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 10, cfg.MaxTurns)
	assert.Equal(t, "2024-02-15-preview", cfg.AzureOpenAI.APIVersion)
	assert.Empty(t, cfg.ToolServers)
}

func TestLoadMissingCredentialFailsFast(t *testing.T) {
	v := azureViper()
	v.Set("AZURE_OPENAI_API_KEY", "")

	_, err := Load(v)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "AZURE_OPENAI_API_KEY", cfgErr.Setting)
}

func TestLoadUnknownProvider(t *testing.T) {
	v := viper.New()
	v.Set("LLM_PROVIDER", "quantum-models")

	_, err := Load(v)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "LLM_PROVIDER", cfgErr.Setting)
}

func TestLoadGitHubModels(t *testing.T) {
	v := viper.New()
	v.Set("LLM_PROVIDER", "github-models")
	v.Set("GITHUB_TOKEN", "ghp_token")
	v.Set("GITHUB_MODEL", "gpt-4o-mini")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHubModels, cfg.Provider)
	assert.True(t, cfg.SupportsToolCalling())
}

func TestLoadOllamaDoesNotSupportToolCalling(t *testing.T) {
	v := viper.New()
	v.Set("LLM_PROVIDER", "ollama-models")
	v.Set("OLLAMA_MODEL_ENDPOINT", "http://localhost:11434")
	v.Set("OLLAMA_MODEL", "llama3")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.False(t, cfg.SupportsToolCalling())
}

func TestLoadToolServersFromEnvironment(t *testing.T) {
	v := azureViper()
	v.Set("MCP_ECHO_PING_URL", "http://echo:8080")
	v.Set("MCP_ECHO_PING_ACCESS_TOKEN", "secret")
	v.Set("MCP_WEB_SEARCH_URL", "http://search:8080")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Len(t, cfg.ToolServers, 2)

	byID := map[string]toolserver.Definition{}
	for _, d := range cfg.ToolServers {
		byID[d.ID] = d
	}

	echo := byID["echo-ping"]
	assert.Equal(t, "http://echo:8080", echo.URL)
	assert.Equal(t, "secret", echo.AccessToken)
	assert.Equal(t, toolserver.TransportHTTP, echo.Transport)

	search := byID["web-search"]
	assert.Equal(t, toolserver.TransportSSE, search.Transport)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "MCP_ECHO_PING", envKey("echo-ping"))
	assert.Equal(t, "MCP_DESTINATION_RECOMMENDATION", envKey("destination-recommendation"))
}
