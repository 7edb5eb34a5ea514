package docpipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/doctext/kit"
)

// RegisterMCP registers the extraction tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerExtractTool(srv)
	p.registerMediaTypesTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- extract ---

type extractReq struct {
	ContentBase64 string `json:"content_base64"`
	MediaType     string `json:"media_type"`
	Name          string `json:"name"`
}

func (p *Pipeline) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "doctext_extract",
		Description: "Extract plain text from a document (pdf, docx, plain text, jpeg/png image). " +
			"Returns text, warnings, and a failure kind when no text could be recovered.",
		InputSchema: inputSchema(map[string]any{
			"content_base64": map[string]any{"type": "string", "description": "Document bytes, standard base64"},
			"media_type":     map[string]any{"type": "string", "description": "MIME type (application/pdf, image/png, ...) or pdf|docx|plain-text|image; inferred from name when empty"},
			"name":           map[string]any{"type": "string", "description": "Original file name"},
		}, []string{"content_base64"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*extractReq)
		data, err := base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("content_base64: %w", err)
		}
		mt, err := resolveMediaType(r.MediaType, r.Name)
		if err != nil {
			return nil, err
		}
		return p.Extract(ctx, SourceDocument{Name: r.Name, MediaType: mt, Data: data}), nil
	}

	kit.RegisterMCPTool(srv, tool,
		kit.Logging(p.logger, tool.Name)(endpoint),
		kit.DecodeJSON[extractReq]())
}

// --- media types ---

func (p *Pipeline) registerMediaTypesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "doctext_media_types",
		Description: "List the supported media types and the MIME types accepted for each.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return mediaTypesResponse(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type mediaTypesResp struct {
	MediaTypes []MediaType `json:"media_types"`
	MIMETypes  []string    `json:"mime_types"`
}

func mediaTypesResponse() mediaTypesResp {
	return mediaTypesResp{MediaTypes: MediaTypes(), MIMETypes: SupportedMIMETypes()}
}

// resolveMediaType prefers the declared type and falls back to the file
// name extension. A declared but unknown type is kept so Extract can report
// it.
func resolveMediaType(declared, name string) (MediaType, error) {
	if declared != "" {
		return ParseMediaType(declared), nil
	}
	if name == "" {
		return "", errors.New("media_type or name is required")
	}
	return DetectMediaType(name)
}
