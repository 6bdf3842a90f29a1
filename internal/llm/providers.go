// Package llm constructs the chat-completion backend for the gateway.
// All supported providers are exposed through langchaingo's llms.Model
// interface so the rest of the gateway never sees provider types.
package llm

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"travel-agents/api_go/internal/config"
	"travel-agents/api_go/internal/utils"
)

// New builds an llms.Model for the provider selected in cfg.
// Credential presence was already validated by config.Load; errors here
// come from the underlying client constructors.
func New(cfg *config.Config, logger utils.ExtendedLogger) (llms.Model, error) {
	switch cfg.Provider {
	case config.ProviderAzureOpenAI:
		logger.Infof("Initializing Azure OpenAI backend (deployment: %s)", cfg.AzureOpenAI.Deployment)
		return openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithBaseURL(cfg.AzureOpenAI.Endpoint),
			openai.WithToken(cfg.AzureOpenAI.APIKey),
			openai.WithAPIVersion(cfg.AzureOpenAI.APIVersion),
			openai.WithModel(cfg.AzureOpenAI.Deployment),
		)

	case config.ProviderGitHubModels:
		logger.Infof("Initializing GitHub Models backend (model: %s)", cfg.GitHubModel)
		return openai.New(
			openai.WithBaseURL(config.GitHubModelsBaseURL()),
			openai.WithToken(cfg.GitHubToken),
			openai.WithModel(cfg.GitHubModel),
		)

	case config.ProviderDockerModels:
		logger.Infof("Initializing Docker Models backend (model: %s, endpoint: %s)", cfg.Docker.Model, cfg.Docker.Endpoint)
		// Docker Model Runner speaks the OpenAI wire protocol and
		// ignores the token.
		return openai.New(
			openai.WithBaseURL(cfg.Docker.Endpoint),
			openai.WithToken("docker"),
			openai.WithModel(cfg.Docker.Model),
		)

	case config.ProviderOllamaModels:
		logger.Infof("Initializing Ollama backend (model: %s, endpoint: %s)", cfg.Ollama.Model, cfg.Ollama.Endpoint)
		return ollama.New(
			ollama.WithServerURL(cfg.Ollama.Endpoint),
			ollama.WithModel(cfg.Ollama.Model),
		)

	default:
		return nil, &config.ConfigurationError{Setting: "LLM_PROVIDER", Reason: "unknown provider"}
	}
}
