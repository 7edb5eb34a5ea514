package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/doctext/docpipe"
	"github.com/hazyhaar/doctext/gemini"
)

// Config holds the doctext configuration file.
type Config struct {
	MaxFileMB          int        `yaml:"max_file_mb"`
	PDF                PDFConfig  `yaml:"pdf"`
	OCR                OCRConfig  `yaml:"ocr"`
	LLM                LLMConfig  `yaml:"llm"`
	HTTP               HTTPConfig `yaml:"http"`
	EventsDB           string     `yaml:"events_db"`            // empty disables the event log
	EventRetentionDays int        `yaml:"event_retention_days"` // 0 keeps events forever
}

// PDFConfig tunes scanned-page detection.
type PDFConfig struct {
	RenderScale          float64 `yaml:"render_scale"`
	ScannedPageThreshold int     `yaml:"scanned_page_threshold"` // 0 never OCRs PDF pages
}

// OCRConfig selects the OCR engine.
type OCRConfig struct {
	Engine   string `yaml:"engine"` // tesseract | cli | none
	Language string `yaml:"language"`
	Binary   string `yaml:"binary"` // cli engine only
}

// LLMConfig configures the analysis model.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Listen           string `yaml:"listen"`
	AnalyzePerMinute int    `yaml:"analyze_per_minute"` // 0 disables the limit
}

const (
	EngineTesseract = "tesseract"
	EngineCLI       = "cli"
	EngineNone      = "none"
)

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileMB: 100,
		PDF: PDFConfig{
			RenderScale:          2,
			ScannedPageThreshold: 50,
		},
		OCR: OCRConfig{
			Engine:   EngineTesseract,
			Language: "eng",
			Binary:   "tesseract",
		},
		LLM: LLMConfig{
			Model:       gemini.DefaultModel,
			Temperature: gemini.DefaultTemperature,
		},
		HTTP: HTTPConfig{
			Listen:           ":8080",
			AnalyzePerMinute: 10,
		},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.PDF.RenderScale <= 0 || c.PDF.RenderScale > 8 {
		return fmt.Errorf("pdf.render_scale must be in (0, 8]")
	}
	if c.PDF.ScannedPageThreshold < 0 {
		return fmt.Errorf("pdf.scanned_page_threshold must be >= 0")
	}
	switch c.OCR.Engine {
	case EngineTesseract, EngineNone:
	case EngineCLI:
		if c.OCR.Binary == "" {
			return fmt.Errorf("ocr.binary is required for the cli engine")
		}
	default:
		return fmt.Errorf("unsupported ocr.engine %q (use tesseract, cli or none)", c.OCR.Engine)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0, 2]")
	}
	if c.HTTP.Listen == "" {
		return fmt.Errorf("http.listen is required")
	}
	if c.HTTP.AnalyzePerMinute < 0 {
		return fmt.Errorf("http.analyze_per_minute must be >= 0")
	}
	if c.EventRetentionDays < 0 {
		return fmt.Errorf("event_retention_days must be >= 0")
	}
	return nil
}

// MaxFileBytes returns the max file size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// ScannedPageThreshold returns the pipeline threshold. 0 in the file means
// the text layer is always trusted.
func (c *Config) ScannedPageThreshold() int {
	if c.PDF.ScannedPageThreshold == 0 {
		return docpipe.TextLayerOnly
	}
	return c.PDF.ScannedPageThreshold
}

// AnalyzeWindow is the rate limit window of /v1/analyze.
const AnalyzeWindow = time.Minute
