package agents

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
)

// handoffArgs is the argument shape of the handoff tool. The schema is
// reflected from this struct; the agent enum is injected afterwards
// because the valid targets differ per agent.
type handoffArgs struct {
	Agent  string `json:"agent" jsonschema:"title=Agent,description=Name of the agent to hand the conversation to"`
	Reason string `json:"reason,omitempty" jsonschema:"title=Reason,description=Short reason for the transfer"`
}

// HandoffRequest is a decoded handoff tool call.
type HandoffRequest struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason"`
}

// ParseHandoff decodes the arguments of a handoff tool call.
func ParseHandoff(argumentsJSON string) (HandoffRequest, error) {
	var req HandoffRequest
	if err := json.Unmarshal([]byte(argumentsJSON), &req); err != nil {
		return HandoffRequest{}, err
	}
	return req, nil
}

// handoffTool builds the handoff tool definition with the given agent
// names as the only accepted targets.
func handoffTool(targets []string) llms.Tool {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&handoffArgs{})

	raw, err := json.Marshal(schema)
	if err != nil {
		raw = []byte(`{"type":"object","properties":{"agent":{"type":"string"}},"required":["agent"]}`)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		params = map[string]any{
			"type":       "object",
			"properties": map[string]any{"agent": map[string]any{"type": "string"}},
			"required":   []string{"agent"},
		}
	}
	delete(params, "$schema")

	if props, ok := params["properties"].(map[string]any); ok {
		if agent, ok := props["agent"].(map[string]any); ok {
			enum := make([]any, len(targets))
			for i, t := range targets {
				enum[i] = t
			}
			agent["enum"] = enum
		}
	}

	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        HandoffToolName,
			Description: "Transfer the conversation to another agent that is better suited to handle the request.",
			Parameters:  params,
		},
	}
}
