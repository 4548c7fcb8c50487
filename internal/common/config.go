package common

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	OCR     OCRConfig     `yaml:"ocr"`
	Sink    SinkConfig    `yaml:"sink"`
	Extract ExtractConfig `yaml:"extract"`
}

// BatchConfig holds worker pool configuration
type BatchConfig struct {
	InputDir   string        `yaml:"input_dir"`
	Workers    int           `yaml:"workers"`
	DocTimeout time.Duration `yaml:"doc_timeout"`
}

// OCRConfig holds text acquisition configuration
type OCRConfig struct {
	Engine      string `yaml:"engine"` // cli | gosseract
	PSM         int    `yaml:"psm"`
	Lang        string `yaml:"lang"`
	DPI         int    `yaml:"dpi"`
	MaxPages    int    `yaml:"max_pages"`
	TessdataDir string `yaml:"tessdata_dir"`
	Pdftoppm    string `yaml:"pdftoppm"`
	Tesseract   string `yaml:"tesseract"`
}

// SinkConfig holds spreadsheet output configuration
type SinkConfig struct {
	Template      string `yaml:"template"`
	Output        string `yaml:"output"`
	Mode          string `yaml:"mode"`         // template | append
	MoneyFormat   string `yaml:"money_format"` // raw | decimal
	Sheet         string `yaml:"sheet"`
	StartRow      int    `yaml:"start_row"`
	IncludeSource bool   `yaml:"include_source"`
}

// ExtractConfig holds field extraction configuration
type ExtractConfig struct {
	Dialect string `yaml:"dialect"` // auto | labeled | positional
}

func defaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			Workers:    runtime.NumCPU(),
			DocTimeout: 2 * time.Minute,
		},
		OCR: OCRConfig{
			Engine:    constants.OCREngineCLI,
			PSM:       6,
			Lang:      "por",
			DPI:       72,
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
		},
		Sink: SinkConfig{
			Mode:          constants.SinkModeTemplate,
			MoneyFormat:   constants.MoneyFormatRaw,
			StartRow:      3,
			IncludeSource: true,
		},
		Extract: ExtractConfig{
			Dialect: constants.DialectAuto,
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	return cfg
}

// LoadConfigFile overlays a YAML file on the defaults, then applies environment
// variables on top. An empty path falls back to NFSE_CONFIG, and to LoadConfig
// when neither is set.
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("NFSE_CONFIG")
	}
	if path == "" {
		return LoadConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError(CodeConfig, fmt.Sprintf("read config %s", path), err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, NewAppError(CodeConfig, fmt.Sprintf("parse config %s", path), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Batch.InputDir = getEnv("NFSE_INPUT_DIR", c.Batch.InputDir)
	c.Batch.Workers = getEnvAsInt("NFSE_WORKERS", c.Batch.Workers)
	c.Batch.DocTimeout = getEnvAsDuration("NFSE_DOC_TIMEOUT", c.Batch.DocTimeout)

	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.PSM = getEnvAsInt("OCR_PSM", c.OCR.PSM)
	c.OCR.Lang = getEnv("OCR_LANG", c.OCR.Lang)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)

	c.Sink.Template = getEnv("NFSE_TEMPLATE", c.Sink.Template)
	c.Sink.Output = getEnv("NFSE_OUTPUT", c.Sink.Output)
	c.Sink.Mode = getEnv("NFSE_SINK_MODE", c.Sink.Mode)
	c.Sink.MoneyFormat = getEnv("NFSE_MONEY_FORMAT", c.Sink.MoneyFormat)
	c.Sink.Sheet = getEnv("NFSE_SHEET", c.Sink.Sheet)
	c.Sink.StartRow = getEnvAsInt("NFSE_START_ROW", c.Sink.StartRow)
	c.Sink.IncludeSource = getEnvAsBool("NFSE_INCLUDE_SOURCE", c.Sink.IncludeSource)

	c.Extract.Dialect = getEnv("NFSE_DIALECT", c.Extract.Dialect)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every batch run depends on.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("batch.input_dir", c.Batch.InputDir, Required, ExistingDir).
		Field("batch.workers", c.Batch.Workers, Positive).
		Field("ocr.engine", c.OCR.Engine, OneOf(constants.OCREngineCLI, constants.OCREngineGosseract)).
		Field("ocr.psm", c.OCR.PSM, Between(0, 13)).
		Field("ocr.dpi", c.OCR.DPI, Between(36, 1200)).
		Field("sink.output", c.Sink.Output, Required).
		Field("sink.mode", c.Sink.Mode, OneOf(constants.SinkModeTemplate, constants.SinkModeAppend)).
		Field("sink.money_format", c.Sink.MoneyFormat, OneOf(constants.MoneyFormatRaw, constants.MoneyFormatDecimal)).
		Field("sink.start_row", c.Sink.StartRow, Between(3, 1048576)).
		Field("extract.dialect", c.Extract.Dialect, OneOf(constants.DialectAuto, constants.DialectLabeled, constants.DialectPositional))
	if c.Batch.DocTimeout <= 0 {
		v.errors = append(v.errors, ValidationError{Field: "batch.doc_timeout", Value: c.Batch.DocTimeout, Message: "must be positive"})
	}
	return ValidateAndReturnError(v)
}
