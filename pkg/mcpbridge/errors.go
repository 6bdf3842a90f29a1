package mcpbridge

import "fmt"

// ConnectionError means a tool server could not be reached at
// discovery or invocation time. Callers degrade by omitting the
// server's tools rather than failing the turn.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tool server %q unreachable: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError means a tool server answered with a malformed tool
// descriptor or result. The offending tool or result is omitted.
type ProtocolError struct {
	Server string
	Tool   string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool server %q: malformed tool %q: %v", e.Server, e.Tool, e.Err)
	}
	return fmt.Sprintf("tool server %q: protocol error: %v", e.Server, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
