package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer returns an MCP server exposing the extraction tools.
func NewMCPServer(deps *Dependencies) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "doctext", Version: version}, nil)
	deps.Pipeline.RegisterMCP(srv)
	return srv
}

// Run executes the mcp command, serving tools over stdin/stdout until the
// client disconnects or the context is canceled.
func (c *MCPCmd) Run(deps *Dependencies) error {
	deps.Logger.Info("doctext mcp on stdio")
	return NewMCPServer(deps).Run(deps.Ctx, &mcp.StdioTransport{})
}
