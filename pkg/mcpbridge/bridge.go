package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/toolserver"
)

// CallableTool pairs a discovered descriptor with its framework-native
// definition and an executor bound to the pooled connection. Execute
// always returns conversational text: transport failures and
// tool-reported errors come back as text the agent can react to, never
// as a turn-level error.
type CallableTool struct {
	Descriptor Descriptor
	LLM        llms.Tool
	Execute    func(ctx context.Context, argumentsJSON string) string
}

// ServerInventory is the discovery result for one configured server,
// used by the tool listing endpoint.
type ServerInventory struct {
	Server    toolserver.Definition `json:"server"`
	Tools     []Descriptor          `json:"tools"`
	Reachable bool                  `json:"reachable"`
	Error     string                `json:"error,omitempty"`
}

// Bridge converts MCP tool descriptors into callable langchaingo tools
// backed by the connection pool.
type Bridge struct {
	pool   *Pool
	logger utils.ExtendedLogger
}

// NewBridge wraps a pool.
func NewBridge(pool *Pool, logger utils.ExtendedLogger) *Bridge {
	return &Bridge{pool: pool, logger: logger}
}

// Pool exposes the underlying connection pool.
func (b *Bridge) Pool() *Pool { return b.pool }

// Tools discovers and bridges the tools of the requested servers.
// Unknown server ids are silently ignored. A server that cannot be
// reached contributes nothing; its failure is logged and the remaining
// servers' tools are still returned.
func (b *Bridge) Tools(ctx context.Context, serverIDs []string) []CallableTool {
	var tools []CallableTool
	for _, id := range serverIDs {
		if _, ok := b.pool.Registry().Get(id); !ok {
			continue
		}
		descriptors, err := b.pool.ListTools(ctx, id)
		if err != nil {
			b.logger.Warnf("Tool server %q unavailable, omitting its tools: %v", id, err)
			continue
		}
		for _, d := range descriptors {
			tools = append(tools, b.bind(d))
		}
	}
	return tools
}

// Inventory discovers every configured server in parallel, reporting
// per-server reachability for the tool listing endpoint. One down
// server never hides the others.
func (b *Bridge) Inventory(ctx context.Context) []ServerInventory {
	defs := b.pool.Registry().All()
	results := make([]ServerInventory, len(defs))

	var wg sync.WaitGroup
	for i, def := range defs {
		wg.Add(1)
		go func(i int, def toolserver.Definition) {
			defer wg.Done()
			inv := ServerInventory{Server: def, Tools: []Descriptor{}}
			descriptors, err := b.pool.ListTools(ctx, def.ID)
			if err != nil {
				inv.Error = err.Error()
				results[i] = inv
				return
			}
			inv.Reachable = true
			inv.Tools = descriptors
			results[i] = inv
		}(i, def)
	}
	wg.Wait()
	return results
}

// bind builds the callable for one descriptor.
func (b *Bridge) bind(d Descriptor) CallableTool {
	return CallableTool{
		Descriptor: d,
		LLM:        AsLLMTool(d),
		Execute: func(ctx context.Context, argumentsJSON string) string {
			arguments, err := ParseArguments(argumentsJSON)
			if err != nil {
				return fmt.Sprintf("Tool call failed: invalid arguments: %v", err)
			}
			result, err := b.pool.CallTool(ctx, d.ServerID, d.Name, arguments)
			if err != nil {
				b.logger.Warnf("Tool %s on %q failed: %v", d.Name, d.ServerID, err)
				return fmt.Sprintf("Tool %s is currently unavailable: %v", d.Name, err)
			}
			if result.IsError {
				return fmt.Sprintf("Tool call failed with error: %s", result.Text)
			}
			if result.Text == "" {
				return "Tool execution completed but returned no content"
			}
			return result.Text
		},
	}
}

// AsLLMTool converts a descriptor to the langchaingo function-tool
// form, normalizing the schema so every array carries an items field.
// Some providers reject schemas without it.
func AsLLMTool(d Descriptor) llms.Tool {
	schema := map[string]any{"type": "object"}
	for k, v := range d.Parameters {
		schema[k] = v
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	if _, ok := schema["required"]; !ok {
		schema["required"] = []string{}
	}
	normalizeArraySchema(schema)

	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schema,
		},
	}
}

// normalizeArraySchema walks a JSON schema and gives every array
// property a default string items field when the server omitted one.
func normalizeArraySchema(schema map[string]any) {
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return
	}
	for _, value := range properties {
		prop, ok := value.(map[string]any)
		if !ok {
			continue
		}
		switch prop["type"] {
		case "array":
			if items, ok := prop["items"].(map[string]any); ok {
				normalizeArraySchema(items)
			} else if prop["items"] == nil {
				prop["items"] = map[string]any{"type": "string"}
			}
		case "object":
			normalizeArraySchema(prop)
		}
	}
}

// ParseArguments decodes the JSON argument blob an LLM produced for a
// tool call. An empty blob means no arguments.
func ParseArguments(argumentsJSON string) (map[string]any, error) {
	if argumentsJSON == "" {
		return map[string]any{}, nil
	}
	var arguments map[string]any
	if err := json.Unmarshal([]byte(argumentsJSON), &arguments); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	return arguments, nil
}

// GroupByServer splits tools by their originating server id, with the
// server ids sorted for deterministic iteration.
func GroupByServer(tools []CallableTool) (map[string][]CallableTool, []string) {
	grouped := make(map[string][]CallableTool)
	for _, t := range tools {
		grouped[t.Descriptor.ServerID] = append(grouped[t.Descriptor.ServerID], t)
	}
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return grouped, ids
}
