package runner

// deltaFields is the precedence order for extracting streamed text
// from a native event's payload. Different loop stages populate
// different fields; the first non-empty string wins.
var deltaFields = []string{"content", "delta", "message"}

// deltaText extracts the text chunk from a native stream event.
func deltaText(data map[string]any) string {
	for _, field := range deltaFields {
		if s, ok := data[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringField reads a string out of a native payload, empty when
// absent or differently typed.
func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// normalize maps one native event to its normalized form. The second
// return is false when the event produces nothing, which only happens
// for stream events whose payload carries no text.
func normalize(ev NativeEvent) (NormalizedEvent, bool) {
	switch ev.Kind {
	case NativeAgentStream:
		delta := deltaText(ev.Data)
		if delta == "" {
			return NormalizedEvent{}, false
		}
		return NormalizedEvent{Kind: KindTokenDelta, Agent: ev.Agent, Delta: delta}, true

	case NativeAgentToolCall:
		return NormalizedEvent{
			Kind:  KindToolCallStart,
			Agent: ev.Agent,
			Tool:  stringField(ev.Data, "tool"),
			Data:  ev.Data,
		}, true

	case NativeAgentToolCallResult:
		return NormalizedEvent{
			Kind:  KindToolCallEnd,
			Agent: ev.Agent,
			Tool:  stringField(ev.Data, "tool"),
			Data:  ev.Data,
		}, true

	case NativeAgentSetup, NativeAgentHandoff:
		return NormalizedEvent{Kind: KindAgentSwitch, Agent: ev.Agent, Data: ev.Data}, true

	case NativeAgentComplete:
		return NormalizedEvent{Kind: KindCompletion, Agent: ev.Agent, Data: ev.Data}, true

	case NativeError:
		return NormalizedEvent{Kind: KindError, Agent: ev.Agent, Data: ev.Data}, true

	default:
		// Unknown loop event. Surface it rather than dropping it.
		data := map[string]any{"nativeKind": string(ev.Kind)}
		for k, v := range ev.Data {
			data[k] = v
		}
		return NormalizedEvent{Kind: KindDiagnostic, Agent: ev.Agent, Data: data}, true
	}
}
