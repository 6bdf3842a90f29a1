package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaTextPrecedence(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"content wins", map[string]any{"content": "a", "delta": "b", "message": "c"}, "a"},
		{"delta when no content", map[string]any{"delta": "b", "message": "c"}, "b"},
		{"message last", map[string]any{"message": "c"}, "c"},
		{"empty content falls through", map[string]any{"content": "", "delta": "b"}, "b"},
		{"non-string ignored", map[string]any{"content": 42, "message": "c"}, "c"},
		{"nothing", map[string]any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deltaText(tt.data))
		})
	}
}

func TestNormalizeMapping(t *testing.T) {
	tests := []struct {
		native NativeKind
		want   Kind
	}{
		{NativeAgentToolCall, KindToolCallStart},
		{NativeAgentToolCallResult, KindToolCallEnd},
		{NativeAgentSetup, KindAgentSwitch},
		{NativeAgentHandoff, KindAgentSwitch},
		{NativeAgentComplete, KindCompletion},
		{NativeError, KindError},
	}
	for _, tt := range tests {
		t.Run(string(tt.native), func(t *testing.T) {
			ev, ok := normalize(NativeEvent{Kind: tt.native, Agent: "A", Data: map[string]any{}})
			require.True(t, ok)
			assert.Equal(t, tt.want, ev.Kind)
			assert.Equal(t, "A", ev.Agent)
		})
	}
}

func TestNormalizeStream(t *testing.T) {
	ev, ok := normalize(NativeEvent{
		Kind:  NativeAgentStream,
		Agent: "TriageAgent",
		Data:  map[string]any{"content": "hel"},
	})
	require.True(t, ok)
	assert.Equal(t, KindTokenDelta, ev.Kind)
	assert.Equal(t, "hel", ev.Delta)

	_, ok = normalize(NativeEvent{Kind: NativeAgentStream, Data: map[string]any{}})
	assert.False(t, ok, "stream event without text produces nothing")
}

func TestNormalizeUnknownBecomesDiagnostic(t *testing.T) {
	ev, ok := normalize(NativeEvent{
		Kind:  NativeKind("AgentThinking"),
		Agent: "A",
		Data:  map[string]any{"thought": "hmm"},
	})
	require.True(t, ok)
	assert.Equal(t, KindDiagnostic, ev.Kind)
	assert.Equal(t, "AgentThinking", ev.Data["nativeKind"])
	assert.Equal(t, "hmm", ev.Data["thought"])
}

func TestTerminalKinds(t *testing.T) {
	assert.True(t, KindCompletion.Terminal())
	assert.True(t, KindError.Terminal())
	assert.False(t, KindTokenDelta.Terminal())
	assert.False(t, KindToolCallStart.Terminal())
	assert.False(t, KindAgentSwitch.Terminal())
	assert.False(t, KindDiagnostic.Terminal())
}
