// Package runner coordinates a chat turn: it drives the agent loop,
// normalizes the loop's native events into one ordered stream, and
// enforces the stream's terminal-event contract.
package runner

import "time"

// NativeKind names the events the agent loop emits. These are the
// loop's internal vocabulary; they never reach clients directly.
type NativeKind string

const (
	NativeAgentSetup          NativeKind = "AgentSetup"
	NativeAgentStream         NativeKind = "AgentStream"
	NativeAgentToolCall       NativeKind = "AgentToolCall"
	NativeAgentToolCallResult NativeKind = "AgentToolCallResult"
	NativeAgentHandoff        NativeKind = "AgentHandoff"
	NativeAgentComplete       NativeKind = "AgentComplete"
	NativeError               NativeKind = "Error"
)

// NativeEvent is one raw event from the agent loop.
type NativeEvent struct {
	Kind  NativeKind
	Agent string
	Data  map[string]any
}

// Kind names the normalized event vocabulary exposed to clients.
type Kind string

const (
	// KindTokenDelta carries one incremental chunk of assistant text.
	KindTokenDelta Kind = "token_delta"
	// KindToolCallStart announces a tool invocation before it runs.
	KindToolCallStart Kind = "tool_call_start"
	// KindToolCallEnd carries a tool invocation's result.
	KindToolCallEnd Kind = "tool_call_end"
	// KindAgentSwitch reports which agent is now driving the turn.
	KindAgentSwitch Kind = "agent_switch"
	// KindCompletion terminates a successful turn. Exactly one terminal
	// event is emitted per turn, and nothing follows it.
	KindCompletion Kind = "completion"
	// KindError terminates a failed turn.
	KindError Kind = "error"
	// KindDiagnostic wraps native events with no dedicated mapping so
	// nothing the loop reports is silently lost.
	KindDiagnostic Kind = "diagnostic"
)

// Terminal reports whether k ends the stream.
func (k Kind) Terminal() bool {
	return k == KindCompletion || k == KindError
}

// NormalizedEvent is one entry in the ordered stream a client sees.
// Sequence numbers are contiguous from zero within a turn.
type NormalizedEvent struct {
	Kind      Kind           `json:"kind"`
	Sequence  int            `json:"sequence"`
	TurnID    string         `json:"turnId"`
	Agent     string         `json:"agent,omitempty"`
	Delta     string         `json:"delta,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
