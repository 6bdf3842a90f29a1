package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"travel-agents/api_go/internal/config"
	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/agents"
	"travel-agents/api_go/pkg/history"
	"travel-agents/api_go/pkg/mcpbridge"
	"travel-agents/api_go/pkg/runner"
)

// API holds the gateway's request handlers and their dependencies.
type API struct {
	cfg         *config.Config
	model       llms.Model
	bridge      *mcpbridge.Bridge
	coordinator *runner.Coordinator
	store       *history.Store
	corsOrigins []string
	logger      utils.ExtendedLogger
}

// NewAPI wires the handler set. store may be nil; history endpoints
// then report 503.
func NewAPI(cfg *config.Config, model llms.Model, bridge *mcpbridge.Bridge, coordinator *runner.Coordinator, store *history.Store, corsOrigins []string, logger utils.ExtendedLogger) *API {
	return &API{
		cfg:         cfg,
		model:       model,
		bridge:      bridge,
		coordinator: coordinator,
		store:       store,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), a.cors())

	api := router.Group("/api")
	{
		api.GET("/health", a.handleHealth)
		api.GET("/tools", a.handleTools)
		api.POST("/chat", a.handleChat)
		api.GET("/history", a.handleHistory)
		api.GET("/history/:turnId", a.handleHistoryTurn)
	}
	return router
}

// cors allows the configured origins. "*" allows everything.
func (a *API) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := ""
		for _, o := range a.corsOrigins {
			if o == "*" || o == origin {
				allowed = o
				break
			}
		}
		if allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "OK",
		"service":  "travel-agents-gateway",
		"version":  "1.0.0",
		"provider": string(a.cfg.Provider),
		"mcp": gin.H{
			"total_servers":      len(a.cfg.ToolServers),
			"configured_servers": a.bridge.Pool().Registry().IDs(),
		},
	})
}

// handleTools discovers every configured server in parallel and
// reports per-server reachability. A down server shows up as
// unreachable; it never hides the others or fails the request.
func (a *API) handleTools(c *gin.Context) {
	inventory := a.bridge.Inventory(c.Request.Context())

	available := 0
	tools := []mcpbridge.Descriptor{}
	for _, inv := range inventory {
		tools = append(tools, inv.Tools...)
		if inv.Reachable {
			available++
		}
	}
	totalTools := len(tools)
	c.JSON(http.StatusOK, gin.H{
		"tools":             tools,
		"servers":           inventory,
		"total_tools":       totalTools,
		"total_servers":     len(inventory),
		"available_servers": available,
	})
}

// ToolSelection toggles one tool server for a chat turn.
type ToolSelection struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

// ChatRequest is the chat endpoint's body. An empty tool selection
// means all configured servers. Unknown ids are ignored.
type ChatRequest struct {
	Message string          `json:"message"`
	Tools   []ToolSelection `json:"tools"`
}

// selectedServerIDs resolves the request's tool selection against the
// configured servers.
func (r ChatRequest) selectedServerIDs(all []string) []string {
	if len(r.Tools) == 0 {
		return all
	}
	var ids []string
	for _, t := range r.Tools {
		if t.Selected {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// envelope is the wire frame around each normalized event, one JSON
// object per line.
type envelope struct {
	Type  string                 `json:"type"`
	Agent string                 `json:"agent,omitempty"`
	Event string                 `json:"event"`
	Data  runner.NormalizedEvent `json:"data"`
}

// handleChat runs one chat turn and streams its normalized events as
// newline-delimited JSON. Each event is flushed before the next is
// produced. The request context cancels the run when the client
// disconnects.
func (a *API) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx := c.Request.Context()
	serverIDs := req.selectedServerIDs(a.bridge.Pool().Registry().IDs())

	set := agents.Build(ctx, a.bridge, serverIDs, a.cfg.SupportsToolCalling(), a.logger)
	engine := runner.NewAgentEngine(a.model, set, a.cfg.Temperature, a.cfg.MaxTurns, a.logger)

	turnID := uuid.NewString()
	a.logger.WithField("turnId", turnID).Infof("Chat turn started (%d agents)", set.Size())

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	writer := c.Writer
	sink := func(ev runner.NormalizedEvent) error {
		env := envelope{Type: "metadata", Agent: ev.Agent, Event: string(ev.Kind), Data: ev}
		if ev.Kind == runner.KindError {
			env.Type = "error"
		}
		line, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return err
		}
		writer.Flush()
		return nil
	}

	result := a.coordinator.Run(ctx, turnID, engine, req.Message, sink)
	a.logger.WithField("turnId", turnID).Infof("Chat turn finished: %d events in %s", result.Events, result.Duration)

	if a.store != nil {
		// The request context may already be gone; recording uses its
		// own deadline.
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.Record(recordCtx, history.Turn{
			TurnID:   result.TurnID,
			Question: req.Message,
			Answer:   result.Answer,
			Events:   result.Events,
			Failed:   result.Err != nil,
			Duration: result.Duration.Milliseconds(),
		}); err != nil {
			a.logger.WithError(err).Warn("Recording turn failed")
		}
	}
}

func (a *API) handleHistory(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
		return
	}
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	turns, err := a.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (a *API) handleHistoryTurn(c *gin.Context) {
	if a.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
		return
	}
	turn, err := a.store.Get(c.Request.Context(), c.Param("turnId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if turn == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "turn not found"})
		return
	}
	c.JSON(http.StatusOK, turn)
}
