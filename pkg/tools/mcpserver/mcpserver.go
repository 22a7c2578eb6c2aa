// Package mcpserver serves the context tool surface over the MCP protocol
// using the official MCP Go SDK.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evinhua/model-context-protocol-server/pkg/tools/toolbox"
)

// Server exposes registered tools to MCP clients.
type Server struct {
	server *mcp.Server
}

// New creates a Server with the given implementation name and version.
func New(name, version string) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &Server{server: server}
}

// Register adds tools to the server.
func (s *Server) Register(tools ...toolbox.Tool) {
	for _, t := range tools {
		s.server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, wrapHandler(t.Handler))
	}
}

// Serve reads MCP requests from in and writes responses to out, blocking
// until ctx is cancelled or the transport closes. Used with stdin/stdout for
// the stdio transport.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server on the given transport. Tests call it directly with
// an in-memory transport.
func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// wrapHandler adapts a toolbox.Handler to the SDK's ToolHandler. Handler
// errors become tool results with IsError set, not protocol errors.
func wrapHandler(h toolbox.Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}

		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
