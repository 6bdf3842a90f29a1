// Package mcpbridge connects the gateway to MCP tool servers: it
// discovers tool descriptors, pools connections across chat turns, and
// bridges descriptors into langchaingo tools that agents can call.
package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"travel-agents/api_go/internal/utils"
	"travel-agents/api_go/pkg/toolserver"
)

const clientName = "travel-agents-gateway"

// Descriptor is one callable operation discovered from a tool server.
// Never mutated after creation.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	ServerID    string         `json:"serverId"`
}

// Result is the outcome of one tool invocation. A tool that ran but
// reported failure comes back with IsError set; that is data for the
// agent to recover from, not an error for the caller.
type Result struct {
	Text    string
	IsError bool
}

// Client wraps one mcp-go client for a single tool server.
type Client struct {
	def    toolserver.Definition
	mcp    *client.Client
	logger utils.ExtendedLogger
}

// NewClient creates an unconnected client for the given server.
func NewClient(def toolserver.Definition, logger utils.ExtendedLogger) *Client {
	return &Client{def: def, logger: logger}
}

// Connect dials the server's MCP endpoint using its declared transport
// and performs the protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	headers := map[string]string{}
	if c.def.AccessToken != "" {
		headers["Authorization"] = "Bearer " + c.def.AccessToken
	}

	var (
		mcpClient *client.Client
		err       error
	)
	switch c.def.Transport {
	case toolserver.TransportSSE:
		var opts []transport.ClientOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHeaders(headers))
		}
		mcpClient, err = client.NewSSEMCPClient(c.def.Endpoint(), opts...)
	default:
		var opts []transport.StreamableHTTPCOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		mcpClient, err = client.NewStreamableHttpClient(c.def.Endpoint(), opts...)
	}
	if err != nil {
		return &ConnectionError{Server: c.def.ID, Err: err}
	}

	if err := mcpClient.Start(ctx); err != nil {
		mcpClient.Close()
		return &ConnectionError{Server: c.def.ID, Err: err}
	}

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		mcpClient.Close()
		return &ConnectionError{Server: c.def.ID, Err: fmt.Errorf("initialize: %w", err)}
	}

	c.mcp = mcpClient
	c.logger.Infof("Connected to MCP server %q (%s via %s)", c.def.ID, c.def.Endpoint(), c.def.Transport)
	return nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	if c.mcp != nil {
		return c.mcp.Close()
	}
	return nil
}

// ListTools discovers the server's callable tools. A malformed
// descriptor is skipped (logged) rather than failing the whole listing.
func (c *Client) ListTools(ctx context.Context) ([]Descriptor, error) {
	if c.mcp == nil {
		return nil, &ConnectionError{Server: c.def.ID, Err: fmt.Errorf("client not connected")}
	}

	result, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, &ConnectionError{Server: c.def.ID, Err: err}
	}

	descriptors := make([]Descriptor, 0, len(result.Tools))
	for _, tool := range result.Tools {
		d, err := descriptorFromTool(c.def.ID, tool)
		if err != nil {
			c.logger.Warnf("Skipping malformed tool from %q: %v", c.def.ID, err)
			continue
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// CallTool invokes a named tool. Tool-reported failures are returned in
// the Result, not as an error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*Result, error) {
	if c.mcp == nil {
		return nil, &ConnectionError{Server: c.def.ID, Err: fmt.Errorf("client not connected")}
	}

	result, err := c.mcp.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: arguments,
		},
	})
	if err != nil {
		return nil, &ConnectionError{Server: c.def.ID, Err: fmt.Errorf("call tool %s: %w", name, err)}
	}
	if result == nil {
		return nil, &ProtocolError{Server: c.def.ID, Tool: name, Err: fmt.Errorf("empty tool result")}
	}

	return &Result{Text: contentAsText(result.Content), IsError: result.IsError}, nil
}

// descriptorFromTool validates and converts one wire-level tool into a
// Descriptor. The input schema goes through a JSON round trip so the
// bridge only ever handles plain maps.
func descriptorFromTool(serverID string, tool mcp.Tool) (Descriptor, error) {
	if tool.Name == "" {
		return Descriptor{}, &ProtocolError{Server: serverID, Err: fmt.Errorf("tool with empty name")}
	}

	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return Descriptor{}, &ProtocolError{Server: serverID, Tool: tool.Name, Err: err}
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return Descriptor{}, &ProtocolError{Server: serverID, Tool: tool.Name, Err: err}
	}

	return Descriptor{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  params,
		ServerID:    serverID,
	}, nil
}

// contentAsText flattens an MCP content list into one string.
func contentAsText(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if text, ok := mcp.AsTextContent(item); ok {
			parts = append(parts, text.Text)
			continue
		}
		if raw, err := json.Marshal(item); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}
