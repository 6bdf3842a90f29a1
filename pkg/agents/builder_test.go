package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-agents/api_go/pkg/logger"
	"travel-agents/api_go/pkg/mcpbridge"
	"travel-agents/api_go/pkg/toolserver"
)

type fakeTransport struct {
	tools []mcpbridge.Descriptor
}

func (f *fakeTransport) ListTools(ctx context.Context) ([]mcpbridge.Descriptor, error) {
	return f.tools, nil
}

func (f *fakeTransport) CallTool(ctx context.Context, name string, args map[string]any) (*mcpbridge.Result, error) {
	return &mcpbridge.Result{Text: "ok"}, nil
}

func (f *fakeTransport) Close() error { return nil }

// testBridge builds a bridge whose servers expose the given tool names.
// A server mapped to nil is unreachable.
func testBridge(t *testing.T, servers map[string][]string) *mcpbridge.Bridge {
	t.Helper()
	var defs []toolserver.Definition
	for id := range servers {
		defs = append(defs, toolserver.Definition{
			ID:        id,
			Name:      id,
			URL:       "http://" + id + ":8080",
			Transport: toolserver.TransportHTTP,
		})
	}
	registry, err := toolserver.NewRegistry(defs)
	require.NoError(t, err)

	dial := func(ctx context.Context, def toolserver.Definition) (mcpbridge.ToolTransport, error) {
		names := servers[def.ID]
		if names == nil {
			return nil, &mcpbridge.ConnectionError{Server: def.ID, Err: fmt.Errorf("connection refused")}
		}
		tools := make([]mcpbridge.Descriptor, len(names))
		for i, n := range names {
			tools[i] = mcpbridge.Descriptor{Name: n, Description: n, ServerID: def.ID}
		}
		return &fakeTransport{tools: tools}, nil
	}

	pool := mcpbridge.NewPool(registry, dial, mcpbridge.PoolOptions{}, logger.NewTestLogger())
	return mcpbridge.NewBridge(pool, logger.NewTestLogger())
}

func TestBuildTriageSeesToolUnion(t *testing.T) {
	bridge := testBridge(t, map[string][]string{
		"echo-ping":          {"echo"},
		"itinerary-planning": {"plan_trip", "suggest_hotels"},
	})

	set := Build(context.Background(), bridge, []string{"echo-ping", "itinerary-planning"}, true, logger.NewTestLogger())

	require.NotNil(t, set.Triage)
	assert.Equal(t, "TriageAgent", set.Triage.Name)
	assert.Len(t, set.Triage.Tools, 3)
	assert.Equal(t, []string{"EchoAgent", "ItineraryPlanningAgent"}, set.SpecialistNames())
	assert.Equal(t, 3, set.Size())
}

func TestBuildSpecialistGetsOnlyItsServerTools(t *testing.T) {
	bridge := testBridge(t, map[string][]string{
		"echo-ping":          {"echo"},
		"itinerary-planning": {"plan_trip"},
	})

	set := Build(context.Background(), bridge, []string{"echo-ping", "itinerary-planning"}, true, logger.NewTestLogger())

	echo, ok := set.Lookup("EchoAgent")
	require.True(t, ok)
	require.Len(t, echo.Tools, 1)
	assert.Equal(t, "echo", echo.Tools[0].Descriptor.Name)
	assert.Equal(t, []string{"TriageAgent"}, echo.Handoffs)
}

func TestBuildIgnoresUnknownServerIDs(t *testing.T) {
	bridge := testBridge(t, map[string][]string{"echo-ping": {"echo"}})

	set := Build(context.Background(), bridge, []string{"bogus", "echo-ping"}, true, logger.NewTestLogger())

	assert.Equal(t, []string{"EchoAgent"}, set.SpecialistNames())
	assert.Len(t, set.Triage.Tools, 1)
}

func TestBuildDownServerYieldsNoSpecialist(t *testing.T) {
	bridge := testBridge(t, map[string][]string{
		"echo-ping":  {"echo"},
		"web-search": nil,
	})

	set := Build(context.Background(), bridge, []string{"echo-ping", "web-search"}, true, logger.NewTestLogger())

	assert.Equal(t, []string{"EchoAgent"}, set.SpecialistNames())
	_, ok := set.Lookup("WebSearchAgent")
	assert.False(t, ok)
}

func TestBuildNoToolsFallsBackToConversational(t *testing.T) {
	bridge := testBridge(t, map[string][]string{"web-search": nil})

	set := Build(context.Background(), bridge, []string{"web-search"}, true, logger.NewTestLogger())

	require.NotNil(t, set.Triage)
	assert.Equal(t, "TravelAssistant", set.Triage.Name)
	assert.Empty(t, set.Triage.Tools)
	assert.Empty(t, set.SpecialistNames())
}

func TestBuildNonToolCallingBackendFallsBackToConversational(t *testing.T) {
	bridge := testBridge(t, map[string][]string{"echo-ping": {"echo"}})

	set := Build(context.Background(), bridge, []string{"echo-ping"}, false, logger.NewTestLogger())

	assert.Equal(t, "TravelAssistant", set.Triage.Name)
	assert.Empty(t, set.Triage.Tools)
}

func TestLLMToolsIncludeHandoffWithTargets(t *testing.T) {
	bridge := testBridge(t, map[string][]string{"echo-ping": {"echo"}})
	set := Build(context.Background(), bridge, []string{"echo-ping"}, true, logger.NewTestLogger())

	tools := set.Triage.LLMTools()
	require.Len(t, tools, 2)

	var handoff *struct {
		params map[string]any
	}
	for _, tool := range tools {
		if tool.Function.Name == HandoffToolName {
			p, ok := tool.Function.Parameters.(map[string]any)
			require.True(t, ok)
			handoff = &struct{ params map[string]any }{p}
		}
	}
	require.NotNil(t, handoff, "triage carries the handoff tool")

	props := handoff.params["properties"].(map[string]any)
	agent := props["agent"].(map[string]any)
	assert.Equal(t, []any{"EchoAgent"}, agent["enum"])
}

func TestConversationalAgentOffersNoTools(t *testing.T) {
	set := Conversational()
	assert.Empty(t, set.Triage.LLMTools())
}

func TestParseHandoff(t *testing.T) {
	req, err := ParseHandoff(`{"agent":"EchoAgent","reason":"echo request"}`)
	require.NoError(t, err)
	assert.Equal(t, "EchoAgent", req.Agent)
	assert.Equal(t, "echo request", req.Reason)

	_, err = ParseHandoff(`{bad`)
	assert.Error(t, err)
}

func TestHandoffToolSchemaIsValidJSON(t *testing.T) {
	tool := handoffTool([]string{"A", "B"})
	raw, err := json.Marshal(tool.Function.Parameters)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	_, hasSchemaKey := schema["$schema"]
	assert.False(t, hasSchemaKey)
}

func TestGenericProfileForUnknownServer(t *testing.T) {
	p := profileFor("weather-alerts")
	assert.Equal(t, "WeatherAlertsAgent", p.agentName)
	assert.NotEmpty(t, p.systemPrompt)
}

func TestTriagePromptListsSpecialists(t *testing.T) {
	prompt := triagePrompt([]*Agent{
		{Name: "EchoAgent", Description: "echoes"},
		{Name: "WebSearchAgent", Description: "searches"},
	})
	assert.Contains(t, prompt, "EchoAgent: echoes")
	assert.Contains(t, prompt, "WebSearchAgent: searches")
	assert.Contains(t, prompt, HandoffToolName)
}
