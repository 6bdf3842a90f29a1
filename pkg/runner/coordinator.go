package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/tokens"
)

// ErrTurnTerminated is returned to the engine when it emits after a
// terminal event. The engine treats it as a signal to stop.
var ErrTurnTerminated = errors.New("turn already terminated")

// Sink receives each normalized event in order. It runs synchronously:
// the coordinator does not read the next native event until the sink
// has returned, so a sink that writes and flushes to a client
// guarantees eager delivery. A sink error cancels the turn.
type Sink func(NormalizedEvent) error

// Engine produces the native events of one chat turn. Run returns when
// the turn is done; a returned error means the turn failed before a
// terminal event was emitted.
type Engine interface {
	Run(ctx context.Context, message string, emit EmitFunc) error
}

// EmitFunc hands one native event to the coordinator.
type EmitFunc func(NativeEvent) error

// TurnResult summarizes a finished turn for history and logging.
type TurnResult struct {
	TurnID   string
	Answer   string
	Events   int
	Duration time.Duration
	Err      error
}

// Coordinator drives engines and enforces the stream contract: every
// turn emits exactly one terminal event (completion or error), nothing
// follows it, and sequence numbers are contiguous from zero.
type Coordinator struct {
	estimator tokens.Estimator
	logger    utils.ExtendedLogger
}

// NewCoordinator builds a coordinator. A nil estimator falls back to
// the byte heuristic.
func NewCoordinator(estimator tokens.Estimator, logger utils.ExtendedLogger) *Coordinator {
	if estimator == nil {
		estimator = tokens.Heuristic{}
	}
	return &Coordinator{estimator: estimator, logger: logger}
}

// turnState tracks one in-flight turn. The mutex serializes emission
// from parallel tool fan-out.
type turnState struct {
	mu         sync.Mutex
	turnID     string
	seq        int
	terminated bool
	answer     strings.Builder
	sink       Sink
}

// Run executes one chat turn through the engine, streaming normalized
// events to the sink. Engine failures become a single terminal error
// event unless the client context is already gone, in which case the
// stream is simply abandoned.
func (c *Coordinator) Run(ctx context.Context, turnID string, engine Engine, message string, sink Sink) TurnResult {
	start := time.Now()
	state := &turnState{turnID: turnID, sink: sink}

	err := engine.Run(ctx, message, func(ev NativeEvent) error {
		return c.emit(state, ev)
	})

	switch {
	case err != nil && !errors.Is(err, ErrTurnTerminated):
		if ctx.Err() != nil {
			// Client disconnected; nobody is reading the stream.
			c.logger.Infof("Turn %s cancelled: %v", turnID, ctx.Err())
		} else {
			c.logger.WithError(err).Errorf("Turn %s failed", turnID)
			emitErr := c.emit(state, NativeEvent{
				Kind: NativeError,
				Data: map[string]any{"message": err.Error()},
			})
			if emitErr != nil && !errors.Is(emitErr, ErrTurnTerminated) {
				c.logger.WithError(emitErr).Warnf("Turn %s: error event not delivered", turnID)
			}
		}

	case !state.done():
		// The engine finished without a terminal event; close the
		// stream on its behalf.
		if emitErr := c.emit(state, NativeEvent{
			Kind: NativeAgentComplete,
			Data: map[string]any{"output": state.answerText()},
		}); emitErr != nil && !errors.Is(emitErr, ErrTurnTerminated) {
			c.logger.WithError(emitErr).Warnf("Turn %s: completion event not delivered", turnID)
		}
	}

	result := TurnResult{
		TurnID:   turnID,
		Answer:   state.answerText(),
		Events:   state.eventCount(),
		Duration: time.Since(start),
	}
	if err != nil && !errors.Is(err, ErrTurnTerminated) {
		result.Err = err
	}
	return result
}

// emit normalizes and delivers one native event, enforcing the
// terminal contract and sequence numbering.
func (c *Coordinator) emit(state *turnState, ev NativeEvent) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.terminated {
		return ErrTurnTerminated
	}

	normalized, ok := normalize(ev)
	if !ok {
		return nil
	}

	switch normalized.Kind {
	case KindTokenDelta:
		state.answer.WriteString(normalized.Delta)
	case KindCompletion:
		if output := stringField(normalized.Data, "output"); output != "" {
			state.answer.Reset()
			state.answer.WriteString(output)
		}
		if normalized.Data == nil {
			normalized.Data = map[string]any{}
		}
		normalized.Data["estimatedTokens"] = c.estimator.Count(state.answer.String())
	}

	normalized.Sequence = state.seq
	normalized.TurnID = state.turnID
	normalized.Timestamp = time.Now().UTC()

	if normalized.Kind.Terminal() {
		state.terminated = true
	}
	state.seq++

	return state.sink(normalized)
}

func (s *turnState) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

func (s *turnState) answerText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer.String()
}

func (s *turnState) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
