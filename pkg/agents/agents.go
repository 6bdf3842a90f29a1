// Package agents builds the agent set that serves a chat turn: a
// triage agent that sees every bridged tool, plus one specialist per
// tool server. When no tools are available, or the backend cannot
// drive tool calls, the set degrades to a single conversational agent.
package agents

import (
	"github.com/tmc/langchaingo/llms"

	"travel-agents/api_go/pkg/mcpbridge"
)

// HandoffToolName is the synthetic tool the triage agent and the
// specialists use to transfer the conversation between agents.
const HandoffToolName = "handoff_to_agent"

// Agent is one addressable participant in a chat turn.
type Agent struct {
	Name         string
	Description  string
	SystemPrompt string
	Tools        []mcpbridge.CallableTool
	// Handoffs lists the agent names this agent may transfer to.
	Handoffs []string
}

// LLMTools returns the agent's tool definitions in framework-native
// form, including the handoff tool when the agent has transfer targets.
func (a *Agent) LLMTools() []llms.Tool {
	tools := make([]llms.Tool, 0, len(a.Tools)+1)
	for _, t := range a.Tools {
		tools = append(tools, t.LLM)
	}
	if len(a.Handoffs) > 0 {
		tools = append(tools, handoffTool(a.Handoffs))
	}
	return tools
}

// FindTool resolves a tool call by name against the agent's bridged
// tools. The handoff tool is not bridged and resolves to false.
func (a *Agent) FindTool(name string) (mcpbridge.CallableTool, bool) {
	for _, t := range a.Tools {
		if t.Descriptor.Name == name {
			return t, true
		}
	}
	return mcpbridge.CallableTool{}, false
}

// CanHandoffTo reports whether target is a valid transfer destination.
func (a *Agent) CanHandoffTo(target string) bool {
	for _, name := range a.Handoffs {
		if name == target {
			return true
		}
	}
	return false
}

// Set is the agent roster for one chat turn. Triage is the entry
// point; the specialists are addressable by name through handoffs.
type Set struct {
	Triage      *Agent
	specialists map[string]*Agent
	order       []string
}

// NewSet assembles a roster from an entry agent and its specialists.
func NewSet(triage *Agent, specialists []*Agent) *Set {
	s := &Set{Triage: triage, specialists: make(map[string]*Agent, len(specialists))}
	for _, a := range specialists {
		s.specialists[a.Name] = a
		s.order = append(s.order, a.Name)
	}
	return s
}

// Lookup resolves an agent by name, triage included.
func (s *Set) Lookup(name string) (*Agent, bool) {
	if s.Triage != nil && s.Triage.Name == name {
		return s.Triage, true
	}
	a, ok := s.specialists[name]
	return a, ok
}

// SpecialistNames returns the specialist agent names in build order.
func (s *Set) SpecialistNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Size counts every agent in the set, triage included.
func (s *Set) Size() int {
	if s.Triage == nil {
		return len(s.order)
	}
	return len(s.order) + 1
}
