package agents

import (
	"context"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/mcpbridge"
)

// Build assembles the agent set for a chat turn. Each requested server
// that yields tools gets a specialist agent; the triage agent sees the
// union of every bridged tool and can hand off to any specialist.
// Unknown server ids are ignored, and a server that is down simply
// contributes no specialist. With no tools at all, or a backend that
// cannot drive tool calls, the set collapses to one conversational
// agent so the turn still produces a useful answer.
func Build(ctx context.Context, bridge *mcpbridge.Bridge, serverIDs []string, toolCalling bool, logger utils.ExtendedLogger) *Set {
	if !toolCalling {
		logger.Info("Backend does not support tool calling, using conversational agent")
		return Conversational()
	}

	tools := bridge.Tools(ctx, serverIDs)
	if len(tools) == 0 {
		logger.Info("No tools available, using conversational agent")
		return Conversational()
	}

	grouped, _ := mcpbridge.GroupByServer(tools)

	var specialists []*Agent
	seen := make(map[string]bool)
	for _, id := range serverIDs {
		serverTools, ok := grouped[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		p := profileFor(id)
		specialists = append(specialists, &Agent{
			Name:         p.agentName,
			Description:  p.description,
			SystemPrompt: p.systemPrompt,
			Tools:        serverTools,
			Handoffs:     []string{triageAgentName},
		})
	}

	names := make([]string, len(specialists))
	for i, a := range specialists {
		names[i] = a.Name
	}

	triage := &Agent{
		Name:         triageAgentName,
		Description:  "Analyzes travel requests and routes to appropriate specialized agents",
		SystemPrompt: triagePrompt(specialists),
		Tools:        tools,
		Handoffs:     names,
	}

	logger.Infof("Built agent set: triage + %d specialists over %d tools", len(specialists), len(tools))
	return NewSet(triage, specialists)
}

// Conversational returns the single-agent fallback set.
func Conversational() *Set {
	return NewSet(&Agent{
		Name:         "TravelAssistant",
		Description:  "General travel planning assistant",
		SystemPrompt: conversationalPrompt,
	}, nil)
}
