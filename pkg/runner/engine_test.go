package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"travel-agents/api_go/pkg/agents"
	"travel-agents/api_go/pkg/logger"
	"travel-agents/api_go/pkg/mcpbridge"
)

// fakeModel replays scripted responses, streaming the configured
// chunks before each one.
type fakeModel struct {
	responses []*llms.ContentResponse
	streams   [][]string
	calls     int
	lastTools []llms.Tool
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	m.lastTools = opts.Tools

	if m.calls < len(m.streams) && opts.StreamingFunc != nil {
		for _, chunk := range m.streams[m.calls] {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

func echoTool(executed *[]string) mcpbridge.CallableTool {
	d := mcpbridge.Descriptor{Name: "echo", Description: "Echoes input", ServerID: "echo-ping"}
	return mcpbridge.CallableTool{
		Descriptor: d,
		LLM:        mcpbridge.AsLLMTool(d),
		Execute: func(ctx context.Context, argumentsJSON string) string {
			*executed = append(*executed, argumentsJSON)
			return "echo: hi"
		},
	}
}

func collectNative(events *[]NativeEvent) EmitFunc {
	return func(ev NativeEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func TestEngineConversationalTurn(t *testing.T) {
	model := &fakeModel{
		responses: []*llms.ContentResponse{textResponse("Paris is lovely in spring.")},
		streams:   [][]string{{"Paris is ", "lovely in spring."}},
	}
	engine := NewAgentEngine(model, agents.Conversational(), 0.2, 5, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "when to visit Paris?", collectNative(&events)))

	require.Len(t, events, 4)
	assert.Equal(t, NativeAgentSetup, events[0].Kind)
	assert.Equal(t, NativeAgentStream, events[1].Kind)
	assert.Equal(t, NativeAgentStream, events[2].Kind)
	assert.Equal(t, NativeAgentComplete, events[3].Kind)
	assert.Equal(t, "Paris is lovely in spring.", events[3].Data["output"])
	assert.Empty(t, model.lastTools, "conversational agent offers no tools")
}

func TestEngineExecutesToolCall(t *testing.T) {
	var executed []string
	triage := &agents.Agent{
		Name:         "TriageAgent",
		SystemPrompt: "route requests",
		Tools:        []mcpbridge.CallableTool{echoTool(&executed)},
	}
	set := agents.NewSet(triage, nil)

	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "echo", `{"message":"hi"}`),
		textResponse("The echo said hi."),
	}}
	engine := NewAgentEngine(model, set, 0.2, 5, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "echo hi", collectNative(&events)))

	require.Equal(t, []string{`{"message":"hi"}`}, executed)

	kinds := make([]NativeKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []NativeKind{
		NativeAgentSetup,
		NativeAgentToolCall,
		NativeAgentToolCallResult,
		NativeAgentComplete,
	}, kinds)
	assert.Equal(t, "echo", events[1].Data["tool"])
	assert.Equal(t, "echo: hi", events[2].Data["result"])
}

func TestEngineHandoffSwitchesAgent(t *testing.T) {
	var executed []string
	specialist := &agents.Agent{
		Name:         "EchoAgent",
		Description:  "echoes",
		SystemPrompt: "you echo",
		Tools:        []mcpbridge.CallableTool{echoTool(&executed)},
		Handoffs:     []string{"TriageAgent"},
	}
	triage := &agents.Agent{
		Name:         "TriageAgent",
		SystemPrompt: "route requests",
		Handoffs:     []string{"EchoAgent"},
	}
	set := agents.NewSet(triage, []*agents.Agent{specialist})

	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", agents.HandoffToolName, `{"agent":"EchoAgent"}`),
		textResponse("Echoed for you."),
	}}
	engine := NewAgentEngine(model, set, 0.2, 5, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "echo this", collectNative(&events)))

	require.Len(t, events, 3)
	assert.Equal(t, NativeAgentHandoff, events[1].Kind)
	assert.Equal(t, "TriageAgent", events[1].Data["from"])
	assert.Equal(t, "EchoAgent", events[1].Data["to"])
	assert.Equal(t, NativeAgentComplete, events[2].Kind)
	assert.Equal(t, "EchoAgent", events[2].Agent, "completion comes from the specialist")
}

func TestEngineRejectsInvalidHandoffTarget(t *testing.T) {
	triage := &agents.Agent{
		Name:         "TriageAgent",
		SystemPrompt: "route requests",
		Handoffs:     []string{"EchoAgent"},
	}
	set := agents.NewSet(triage, nil)

	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", agents.HandoffToolName, `{"agent":"NoSuchAgent"}`),
		textResponse("Staying put."),
	}}
	engine := NewAgentEngine(model, set, 0.2, 5, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "go somewhere", collectNative(&events)))

	for _, ev := range events {
		assert.NotEqual(t, NativeAgentHandoff, ev.Kind)
	}
	assert.Equal(t, NativeAgentComplete, events[len(events)-1].Kind)
	assert.Equal(t, "TriageAgent", events[len(events)-1].Agent)
}

func TestEngineUnknownToolIsConversationalData(t *testing.T) {
	triage := &agents.Agent{Name: "TriageAgent", SystemPrompt: "route"}
	set := agents.NewSet(triage, nil)

	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "missing_tool", `{}`),
		textResponse("I could not use that tool."),
	}}
	engine := NewAgentEngine(model, set, 0.2, 5, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "use the tool", collectNative(&events)))

	var result NativeEvent
	for _, ev := range events {
		if ev.Kind == NativeAgentToolCallResult {
			result = ev
		}
	}
	require.NotNil(t, result.Data)
	assert.Contains(t, result.Data["result"], "not available")
	assert.Equal(t, NativeAgentComplete, events[len(events)-1].Kind)
}

func TestEngineTurnBudgetClosesWithCompletion(t *testing.T) {
	var executed []string
	triage := &agents.Agent{
		Name:         "TriageAgent",
		SystemPrompt: "route",
		Tools:        []mcpbridge.CallableTool{echoTool(&executed)},
	}
	set := agents.NewSet(triage, nil)

	// Every turn calls a tool; the budget must close the turn anyway.
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "echo", `{"message":"again"}`),
	}}
	engine := NewAgentEngine(model, set, 0.2, 3, logger.NewTestLogger())

	var events []NativeEvent
	require.NoError(t, engine.Run(context.Background(), "loop forever", collectNative(&events)))

	last := events[len(events)-1]
	assert.Equal(t, NativeAgentComplete, last.Kind)
	assert.Equal(t, true, last.Data["truncated"])
	assert.Len(t, executed, 3)
}
