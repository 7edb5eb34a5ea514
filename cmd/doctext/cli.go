package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/docpipe"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *Config
	Pipeline *docpipe.Pipeline
	Analyzer *analysis.Analyzer // nil when no model is configured
	EventsDB *sql.DB            // events command only
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `short:"c" type:"existingfile" help:"YAML configuration file"`
	LogFormat string `enum:"text,json" default:"text" help:"Log format (text, json)"`
	LogLevel  string `enum:"debug,info,warn,error" default:"info" help:"Log level"`

	Extract ExtractCmd `cmd:"" help:"Extract text from documents"`
	Analyze AnalyzeCmd `cmd:"" help:"Explain a document with the language model"`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP upload API"`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Serve the MCP tools over stdio"`
	Events  EventsCmd  `cmd:"" help:"Show recorded extraction events"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Files     []string `arg:"" help:"Documents to extract"`
	MediaType string   `short:"t" name:"media-type" help:"Media type of every file (MIME type or pdf, docx, plain-text, image); default from the extension"`
	Jobs      int      `short:"j" default:"4" help:"Documents extracted concurrently"`
	JSON      bool     `name:"json" help:"Print results as JSON"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	File      string `arg:"" type:"existingfile" help:"Document to analyze"`
	Mode      string `short:"m" default:"summary" help:"Analysis mode (summary, risks, questions)"`
	Question  string `short:"q" help:"Ask a question about the document instead"`
	MediaType string `short:"t" name:"media-type" help:"Media type of the file; default from the extension"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Listen string `short:"l" help:"Listen address (overrides http.listen)"`
}

// MCPCmd is the "mcp" subcommand.
type MCPCmd struct{}

// EventsCmd is the "events" subcommand.
type EventsCmd struct {
	Limit   int    `short:"n" default:"20" help:"Number of recent events to list"`
	Since   string `default:"24h" help:"Summary window (Go duration)"`
	Cleanup bool   `help:"Delete events older than event_retention_days first"`
}
