package mcpbridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/toolserver"
)

// ToolTransport is one live connection to a tool server. *Client is the
// production implementation; tests substitute in-memory fakes.
type ToolTransport interface {
	ListTools(ctx context.Context) ([]Descriptor, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (*Result, error)
	Close() error
}

// DialFunc establishes a connected transport for one server.
type DialFunc func(ctx context.Context, def toolserver.Definition) (ToolTransport, error)

// PoolOptions tunes the pool's concurrency behavior. Zero values pick
// the defaults below.
type PoolOptions struct {
	// MaxConcurrent bounds in-flight tool invocations per server.
	MaxConcurrent int64
	// AcquireTimeout caps how long a caller waits for a slot before the
	// invocation fails with a ConnectionError.
	AcquireTimeout time.Duration
	// CallsPerSecond throttles tool fan-out per server. Burst allows
	// short spikes above the sustained rate.
	CallsPerSecond float64
	Burst          int
}

const (
	defaultMaxConcurrent  = 4
	defaultAcquireTimeout = 10 * time.Second
	defaultCallsPerSecond = 8
	defaultBurst          = 4
)

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = defaultMaxConcurrent
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = defaultAcquireTimeout
	}
	if o.CallsPerSecond <= 0 {
		o.CallsPerSecond = defaultCallsPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}
	return o
}

// Pool shares one connection per tool server across chat turns. Each
// server gets a semaphore bounding concurrent invocations and a rate
// limiter smoothing tool fan-out from parallel tool calls.
type Pool struct {
	registry *toolserver.Registry
	dial     DialFunc
	opts     PoolOptions
	logger   utils.ExtendedLogger

	mu      sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	transport ToolTransport
	sem       *semaphore.Weighted
	limiter   *rate.Limiter
}

// NewPool builds a pool over the configured servers. A nil dial uses
// the real MCP client.
func NewPool(registry *toolserver.Registry, dial DialFunc, opts PoolOptions, logger utils.ExtendedLogger) *Pool {
	p := &Pool{
		registry: registry,
		dial:     dial,
		opts:     opts.withDefaults(),
		logger:   logger,
		entries:  make(map[string]*poolEntry),
	}
	if p.dial == nil {
		p.dial = func(ctx context.Context, def toolserver.Definition) (ToolTransport, error) {
			c := NewClient(def, logger)
			if err := c.Connect(ctx); err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return p
}

// Registry exposes the server table backing this pool.
func (p *Pool) Registry() *toolserver.Registry { return p.registry }

// entry returns the live entry for a server, dialing on first use.
// A failed dial leaves no entry behind so the next caller retries.
func (p *Pool) entry(ctx context.Context, serverID string) (*poolEntry, error) {
	def, ok := p.registry.Get(serverID)
	if !ok {
		return nil, &ConnectionError{Server: serverID, Err: fmt.Errorf("unknown tool server")}
	}

	p.mu.Lock()
	if e, ok := p.entries[serverID]; ok {
		p.mu.Unlock()
		return e, nil
	}
	p.mu.Unlock()

	// Dial outside the lock; slow servers must not block the others.
	transport, err := p.dial(ctx, def)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[serverID]; ok {
		// Lost the race; keep the first connection.
		transport.Close()
		return e, nil
	}
	e := &poolEntry{
		transport: transport,
		sem:       semaphore.NewWeighted(p.opts.MaxConcurrent),
		limiter:   rate.NewLimiter(rate.Limit(p.opts.CallsPerSecond), p.opts.Burst),
	}
	p.entries[serverID] = e
	return e, nil
}

// evict drops a server's connection so the next use reconnects.
func (p *Pool) evict(serverID string, e *poolEntry) {
	p.mu.Lock()
	if cur, ok := p.entries[serverID]; ok && cur == e {
		delete(p.entries, serverID)
	}
	p.mu.Unlock()
	e.transport.Close()
}

// ListTools discovers the tools of one server through its pooled
// connection.
func (p *Pool) ListTools(ctx context.Context, serverID string) ([]Descriptor, error) {
	e, err := p.entry(ctx, serverID)
	if err != nil {
		return nil, err
	}
	descriptors, err := e.transport.ListTools(ctx)
	if err != nil {
		if _, down := err.(*ConnectionError); down {
			p.evict(serverID, e)
		}
		return nil, err
	}
	return descriptors, nil
}

// CallTool invokes a tool through the pooled connection, waiting for a
// concurrency slot and the server's rate limiter first. Slot
// acquisition is bounded; exceeding the timeout fails this invocation
// with a ConnectionError, never the whole turn.
func (p *Pool) CallTool(ctx context.Context, serverID, name string, arguments map[string]any) (*Result, error) {
	e, err := p.entry(ctx, serverID)
	if err != nil {
		return nil, err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.opts.AcquireTimeout)
	defer cancel()
	if err := e.sem.Acquire(acquireCtx, 1); err != nil {
		return nil, &ConnectionError{Server: serverID, Err: fmt.Errorf("no connection slot within %s: %w", p.opts.AcquireTimeout, err)}
	}
	defer e.sem.Release(1)

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, &ConnectionError{Server: serverID, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	result, err := e.transport.CallTool(ctx, name, arguments)
	if err != nil {
		if _, down := err.(*ConnectionError); down {
			p.evict(serverID, e)
		}
		return nil, err
	}
	return result, nil
}

// Close tears down every pooled connection.
func (p *Pool) Close() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for id, e := range entries {
		if err := e.transport.Close(); err != nil {
			p.logger.Warnf("Closing connection to %q: %v", id, err)
		}
	}
}
