package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/agents"
	"travel-agents/api_go/pkg/mcpbridge"
)

// resultPreviewLimit caps how much tool output is echoed into the
// tool_call_end event. The full output still goes back to the model.
const resultPreviewLimit = 500

// AgentEngine runs the multi-agent tool-calling loop over a langchaingo
// model. A set with a single tool-less agent degrades naturally to a
// plain conversational exchange: no tools are offered, so the first
// response completes the turn.
type AgentEngine struct {
	model       llms.Model
	set         *agents.Set
	temperature float64
	maxTurns    int
	logger      utils.ExtendedLogger
}

// NewAgentEngine builds an engine for one chat turn.
func NewAgentEngine(model llms.Model, set *agents.Set, temperature float64, maxTurns int, logger utils.ExtendedLogger) *AgentEngine {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &AgentEngine{
		model:       model,
		set:         set,
		temperature: temperature,
		maxTurns:    maxTurns,
		logger:      logger,
	}
}

// Run drives the loop until the active agent answers without calling
// tools, or the turn budget runs out.
func (e *AgentEngine) Run(ctx context.Context, message string, emit EmitFunc) error {
	active := e.set.Triage
	if active == nil {
		return fmt.Errorf("agent set has no entry agent")
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, active.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, message),
	}

	if err := emit(NativeEvent{
		Kind:  NativeAgentSetup,
		Agent: active.Name,
		Data: map[string]any{
			"agents": e.set.Size(),
			"tools":  len(active.Tools),
		},
	}); err != nil {
		return err
	}

	for turn := 0; turn < e.maxTurns; turn++ {
		agentName := active.Name
		var streamed strings.Builder
		var streamErr error

		opts := []llms.CallOption{
			llms.WithTemperature(e.temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				streamed.Write(chunk)
				if err := emit(NativeEvent{
					Kind:  NativeAgentStream,
					Agent: agentName,
					Data:  map[string]any{"content": string(chunk)},
				}); err != nil {
					streamErr = err
					return err
				}
				return nil
			}),
		}
		if tools := active.LLMTools(); len(tools) > 0 {
			opts = append(opts, llms.WithTools(tools))
		}

		resp, err := e.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			if streamErr != nil {
				return streamErr
			}
			return fmt.Errorf("model backend: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			final := choice.Content
			if final == "" {
				final = streamed.String()
			}
			return emit(NativeEvent{
				Kind:  NativeAgentComplete,
				Agent: agentName,
				Data:  map[string]any{"output": final},
			})
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		responses, next, err := e.dispatch(ctx, active, choice.ToolCalls, emit)
		if err != nil {
			return err
		}
		for _, r := range responses {
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{r},
			})
		}

		if next != nil && next != active {
			if err := emit(NativeEvent{
				Kind:  NativeAgentHandoff,
				Agent: next.Name,
				Data:  map[string]any{"from": active.Name, "to": next.Name},
			}); err != nil {
				return err
			}
			active = next
			messages[0] = llms.TextParts(llms.ChatMessageTypeSystem, active.SystemPrompt)
		}
	}

	e.logger.Warnf("Turn budget of %d exhausted, closing turn", e.maxTurns)
	return emit(NativeEvent{
		Kind:  NativeAgentComplete,
		Agent: active.Name,
		Data: map[string]any{
			"output":    "I wasn't able to finish this request within the allowed number of steps. Please try narrowing it down.",
			"truncated": true,
		},
	})
}

// pendingCall is one bridged tool invocation awaiting execution.
type pendingCall struct {
	idx   int
	id    string
	name  string
	args  string
	tool  mcpbridge.CallableTool
	found bool
}

// dispatch resolves one round of tool calls. Handoff calls are handled
// inline; bridged calls fan out in parallel, bounded and rate limited
// by the connection pool. Start events are emitted before any call
// runs and results are reported in call order, so the stream stays
// deterministic even with parallel execution. Every call gets a tool
// response so the transcript stays well formed for the model.
func (e *AgentEngine) dispatch(ctx context.Context, active *agents.Agent, calls []llms.ToolCall, emit EmitFunc) ([]llms.ToolCallResponse, *agents.Agent, error) {
	responses := make([]llms.ToolCallResponse, len(calls))
	var next *agents.Agent
	var work []pendingCall

	for i, tc := range calls {
		if tc.FunctionCall == nil {
			responses[i] = llms.ToolCallResponse{ToolCallID: tc.ID, Content: "Tool call had no function payload"}
			continue
		}
		name := tc.FunctionCall.Name
		args := tc.FunctionCall.Arguments

		if name == agents.HandoffToolName {
			responses[i] = llms.ToolCallResponse{
				ToolCallID: tc.ID,
				Name:       name,
				Content:    e.resolveHandoff(active, args, &next),
			}
			continue
		}

		if err := emit(NativeEvent{
			Kind:  NativeAgentToolCall,
			Agent: active.Name,
			Data:  map[string]any{"tool": name, "arguments": args},
		}); err != nil {
			return nil, nil, err
		}
		tool, found := active.FindTool(name)
		work = append(work, pendingCall{idx: i, id: tc.ID, name: name, args: args, tool: tool, found: found})
	}

	var wg sync.WaitGroup
	for _, w := range work {
		wg.Add(1)
		go func(w pendingCall) {
			defer wg.Done()
			var text string
			if !w.found {
				text = fmt.Sprintf("Tool %q is not available to this agent", w.name)
			} else {
				text = w.tool.Execute(ctx, w.args)
			}
			responses[w.idx] = llms.ToolCallResponse{ToolCallID: w.id, Name: w.name, Content: text}
		}(w)
	}
	wg.Wait()

	for _, w := range work {
		if err := emit(NativeEvent{
			Kind:  NativeAgentToolCallResult,
			Agent: active.Name,
			Data: map[string]any{
				"tool":   w.name,
				"result": truncate(responses[w.idx].Content, resultPreviewLimit),
			},
		}); err != nil {
			return nil, nil, err
		}
	}

	return responses, next, nil
}

// resolveHandoff validates a handoff call and records the target. The
// returned text is the tool response the model sees.
func (e *AgentEngine) resolveHandoff(active *agents.Agent, args string, next **agents.Agent) string {
	req, err := agents.ParseHandoff(args)
	if err != nil {
		return fmt.Sprintf("Handoff failed: invalid arguments: %v", err)
	}
	if !active.CanHandoffTo(req.Agent) {
		return fmt.Sprintf("Handoff failed: %q is not a valid target for this agent", req.Agent)
	}
	target, ok := e.set.Lookup(req.Agent)
	if !ok {
		return fmt.Sprintf("Handoff failed: unknown agent %q", req.Agent)
	}
	*next = target
	return fmt.Sprintf("Conversation transferred to %s", target.Name)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
