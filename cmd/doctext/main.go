// Command doctext extracts text from PDF, DOCX, plain-text and image
// documents, and explains it with a language model.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/hazyhaar/doctext/analysis"
	"github.com/hazyhaar/doctext/dbopen"
	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/gemini"
	"github.com/hazyhaar/doctext/observability"
	"github.com/hazyhaar/doctext/ocr"
	"github.com/hazyhaar/doctext/ocr/tesseract"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()
	m.SetDefaultLogger = true

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads GEMINI_API_KEY. Tests replace it.
	Getenv func(string) string

	// OCR and Generator, when set, replace the configured engine and the
	// Gemini model.
	OCR       ocr.Engine
	Generator analysis.Generator

	// SetDefaultLogger installs the command's logger as slog's default.
	SetDefaultLogger bool

	db     *sql.DB
	events *observability.EventLogger
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Close flushes pending events and closes the events database.
func (m *Main) Close() error {
	if m.events != nil {
		m.events.Close()
		m.events = nil
	}
	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("doctext"),
		kong.Description("Document text extraction and plain-language analysis."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'doctext --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogFormat, cli.LogLevel)
	if m.SetDefaultLogger {
		slog.SetDefault(deps.Logger)
	}

	cfg := DefaultConfig()
	if cli.Config != "" {
		if cfg, err = LoadConfig(cli.Config); err != nil {
			return err
		}
	}
	deps.Config = cfg

	defer m.Close()
	command := strings.Fields(kongCtx.Command())[0]

	if command == "events" {
		if cfg.EventsDB == "" {
			return fmt.Errorf("events_db is not configured")
		}
		if err := m.openEvents(cfg.EventsDB); err != nil {
			return err
		}
		deps.EventsDB = m.db
		return kongCtx.Run(deps)
	}

	engine, err := m.ocrEngine(cfg)
	if err != nil {
		return err
	}

	pcfg := docpipe.Config{
		MaxFileSize:          cfg.MaxFileBytes(),
		RenderScale:          cfg.PDF.RenderScale,
		ScannedPageThreshold: cfg.ScannedPageThreshold(),
		OCR:                  engine,
		Logger:               deps.Logger,
	}
	if cfg.EventsDB != "" {
		if err := m.openEvents(cfg.EventsDB); err != nil {
			return err
		}
		m.events = observability.NewEventLogger(m.db, 1000, observability.WithLogger(deps.Logger))
		pcfg.Observer = m.events
	}
	deps.Pipeline = docpipe.New(pcfg)

	if command == "analyze" || command == "serve" {
		gen, err := m.generator(ctx, cfg)
		switch {
		case err == nil:
			deps.Analyzer = analysis.New(gen, deps.Logger)
		case command == "analyze":
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return err
		default:
			deps.Logger.Warn("analysis disabled", "error", err)
		}
	}

	return kongCtx.Run(deps)
}

func (m *Main) openEvents(path string) error {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		return fmt.Errorf("failed to open events database at %q: %w", path, err)
	}
	m.db = db
	return nil
}

func (m *Main) ocrEngine(cfg *Config) (ocr.Engine, error) {
	if m.OCR != nil {
		return m.OCR, nil
	}
	switch cfg.OCR.Engine {
	case EngineNone:
		return nil, nil
	case EngineCLI:
		e := &ocr.CLIEngine{Binary: cfg.OCR.Binary, Language: cfg.OCR.Language}
		if !e.Available() {
			return nil, fmt.Errorf("ocr binary %q not found on PATH", cfg.OCR.Binary)
		}
		return e, nil
	default:
		return tesseract.New(cfg.OCR.Language), nil
	}
}

func (m *Main) generator(ctx context.Context, cfg *Config) (analysis.Generator, error) {
	if m.Generator != nil {
		return m.Generator, nil
	}
	apiKey := m.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return gemini.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature), nil
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
