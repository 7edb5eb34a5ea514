package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/doctext/idgen"
)

// newRequestID stamps MCP calls, which carry no request header of their own.
var newRequestID = idgen.Prefixed("req_", idgen.NanoID(12))

// MCPDecodeResult holds the decoded request and an optional context enrichment.
type MCPDecodeResult struct {
	Request   any
	EnrichCtx func(context.Context) context.Context
}

// DecodeJSON returns a decoder that unmarshals the tool arguments into a
// fresh *T. Missing arguments decode to the zero value.
func DecodeJSON[T any]() func(*mcp.CallToolRequest) (*MCPDecodeResult, error) {
	return func(req *mcp.CallToolRequest) (*MCPDecodeResult, error) {
		r := new(T)
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, r); err != nil {
				return nil, err
			}
		}
		return &MCPDecodeResult{Request: r}, nil
	}
}

// RegisterMCPTool registers an Endpoint as an MCP tool on the given server.
// The decode function extracts the typed request from the tool arguments.
// The endpoint response is returned as JSON text content; errors become
// tool errors, never protocol errors.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode func(*mcp.CallToolRequest) (*MCPDecodeResult, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithTransport(ctx, "mcp")
		if GetRequestID(ctx) == "" {
			ctx = WithRequestID(ctx, newRequestID())
		}
		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}
		if decoded.EnrichCtx != nil {
			ctx = decoded.EnrichCtx(ctx)
		}

		resp, err := endpoint(ctx, decoded.Request)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
