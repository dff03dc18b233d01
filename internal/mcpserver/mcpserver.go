package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers all analyzer tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all analyzer tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "rust-analyzer",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all analyzer tools to the server.
func (s *Server) registerTools() {
	// Hook classification
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_hooks",
		Description: describeHooks(),
	}, handleAnalyzeHooks)

	// Reachability scan
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deadcode",
		Description: describeDeadcode(),
	}, handleDeadcode)

	// Hook name suggestions
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_hooks",
		Description: describeSuggest(),
	}, handleSuggestHooks)

	// Catalog inventory
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_catalogs",
		Description: describeCatalogs(),
	}, handleListCatalogs)

	// Catalog file validation
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_catalog",
		Description: describeValidate(),
	}, handleValidateCatalog)
}
