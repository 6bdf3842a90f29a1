// Package server hosts the HTTP gateway: chat streaming, tool
// discovery, health, and turn history.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"travel-agents/api_go/internal/config"
	"travel-agents/api_go/internal/llm"
	"travel-agents/api_go/pkg/history"
	"travel-agents/api_go/pkg/logger"
	"travel-agents/api_go/pkg/mcpbridge"
	"travel-agents/api_go/pkg/runner"
	"travel-agents/api_go/pkg/tokens"
	"travel-agents/api_go/pkg/toolserver"
)

// ServerCmd starts the API gateway.
var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the travel agents API gateway",
	Long: `Start the HTTP gateway that bridges MCP tool servers into a
streaming multi-agent chat API.

Examples:
  travel-agents server
  travel-agents server --port 4000
  travel-agents server --cors-origins "https://app.example.com"`,
	RunE: runServer,
}

func init() {
	ServerCmd.Flags().String("host", "0.0.0.0", "listen address")
	ServerCmd.Flags().Int("port", 4000, "listen port")
	ServerCmd.Flags().StringSlice("cors-origins", []string{"*"}, "CORS allowed origins")

	viper.BindPFlag("HOST", ServerCmd.Flags().Lookup("host"))
	viper.BindPFlag("PORT", ServerCmd.Flags().Lookup("port"))
	viper.BindPFlag("CORS_ORIGINS", ServerCmd.Flags().Lookup("cors-origins"))
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer log.Close()

	model, err := llm.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize LLM backend: %w", err)
	}

	registry, err := toolserver.NewRegistry(cfg.ToolServers)
	if err != nil {
		return fmt.Errorf("tool server configuration: %w", err)
	}
	log.Infof("Configured tool servers: %v", registry.IDs())

	pool := mcpbridge.NewPool(registry, nil, mcpbridge.PoolOptions{}, log)
	defer pool.Close()
	bridge := mcpbridge.NewBridge(pool, log)

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			// History is best-effort; the gateway serves chats without it.
			log.WithError(err).Warn("History store unavailable, continuing without persistence")
		} else {
			defer store.Close()
		}
	}

	coordinator := runner.NewCoordinator(tokens.NewTikToken(), log)
	api := NewAPI(cfg, model, bridge, coordinator, store, viper.GetStringSlice("CORS_ORIGINS"), log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Gateway listening on %s (provider: %s)", srv.Addr, cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
