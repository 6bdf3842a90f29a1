// Package toolserver holds the static table of MCP tool servers the
// gateway knows how to talk to. Definitions are loaded once from
// configuration and validated at startup; they are immutable afterwards.
package toolserver

import (
	"fmt"
	"strings"
)

// Transport selects how the MCP endpoint is spoken to.
type Transport string

const (
	// TransportHTTP is the streamable HTTP transport (request/response).
	TransportHTTP Transport = "http"
	// TransportSSE is the server-sent-events transport (long-lived stream).
	TransportSSE Transport = "sse"
)

// Protocol path suffixes appended to a server's base URL.
const (
	HTTPPathSuffix = "/mcp"
	SSEPathSuffix  = "/sse"
)

// Definition identifies one MCP tool server.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Transport   Transport `json:"type"`
	AccessToken string    `json:"-"`
}

// Endpoint returns the full MCP endpoint URL including the protocol
// path suffix for the server's transport.
func (d Definition) Endpoint() string {
	base := strings.TrimRight(d.URL, "/")
	if d.Transport == TransportSSE {
		return base + SSEPathSuffix
	}
	return base + HTTPPathSuffix
}

// Registry resolves tool-server ids to their definitions, preserving
// the configuration order.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry validates the definitions and builds a registry.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("tool server with empty id")
		}
		if d.URL == "" {
			return nil, fmt.Errorf("tool server %q has no URL", d.ID)
		}
		if d.Transport != TransportHTTP && d.Transport != TransportSSE {
			return nil, fmt.Errorf("tool server %q has unknown transport %q", d.ID, d.Transport)
		}
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate tool server id %q", d.ID)
		}
		r.defs[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// Get returns the definition for id, if configured.
func (r *Registry) Get(id string) (Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every configured definition in configuration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

// IDs returns the configured server ids in configuration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
