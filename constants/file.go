package constants

import "strings"

// AllowedExtensions holds the file extensions picked up from an input directory.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Sink modes.
const (
	SinkModeTemplate = "template"
	SinkModeAppend   = "append"
)

// Money formats for the sink.
const (
	MoneyFormatRaw     = "raw"
	MoneyFormatDecimal = "decimal"
)

// OCR engines.
const (
	OCREngineCLI       = "cli"
	OCREngineGosseract = "gosseract"
)

// Dialect names. DialectAuto lets the engine pick one per document.
const (
	DialectAuto       = "auto"
	DialectLabeled    = "labeled"
	DialectPositional = "positional"
)
