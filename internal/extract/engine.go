package extract

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// Engine turns normalized text into a FieldRecord using the dialect that fits
// the document. It holds no per-document state and is safe for concurrent use.
type Engine struct {
	dialects []Dialect
	fallback Dialect
	forced   Dialect
	logger   *slog.Logger
}

// Result is one extraction: the record and the dialect that produced it.
type Result struct {
	Record  entity.FieldRecord
	Dialect string
}

type EngineOption func(*Engine)

// WithDialects replaces the built-in dialects. Detection runs in the given order.
func WithDialects(d ...Dialect) EngineOption {
	return func(e *Engine) {
		if len(d) > 0 {
			e.dialects = d
		}
	}
}

func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		dialects: []Dialect{NewLabeled(), NewPositional()},
		logger:   logger,
	}
	for _, o := range opts {
		o(e)
	}
	e.fallback = e.dialects[len(e.dialects)-1]
	return e
}

// Configure applies a dialect setting: constants.DialectAuto detects per
// document, any other name forces that dialect for every document.
func (e *Engine) Configure(name string) error {
	if name == "" || name == constants.DialectAuto {
		e.forced = nil
		return nil
	}
	d, ok := e.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown dialect %q", name)
	}
	e.forced = d
	return nil
}

// SetFallback picks the dialect used when none detects the document.
func (e *Engine) SetFallback(name string) error {
	d, ok := e.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown dialect %q", name)
	}
	e.fallback = d
	return nil
}

// Lookup finds a registered dialect by name.
func (e *Engine) Lookup(name string) (Dialect, bool) {
	for _, d := range e.dialects {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Select returns the dialect for text.
func (e *Engine) Select(text string) Dialect {
	if e.forced != nil {
		return e.forced
	}
	for _, d := range e.dialects {
		if d.Detect(text) {
			return d
		}
	}
	return e.fallback
}

// Extract applies every rule of the selected dialect. Fields without a rule or
// without a match keep the not-found sentinel.
func (e *Engine) Extract(text string) Result {
	d := e.Select(text)
	rec := apply(d, text, e.logger)
	e.logger.Debug("extract.ok", "dialect", d.Name(), "matched", rec.Matched(), "fields", len(constants.Columns))
	return Result{Record: rec, Dialect: d.Name()}
}

// Apply runs the rules of d against text.
func Apply(d Dialect, text string) entity.FieldRecord {
	return apply(d, text, slog.Default())
}

// apply skips a match for a field outside the record and logs it at debug.
func apply(d Dialect, text string, logger *slog.Logger) entity.FieldRecord {
	rec := entity.NewFieldRecord()
	for _, rule := range d.Rules() {
		v, ok := rule.Extract(text)
		if !ok {
			continue
		}
		if err := rec.Set(rule.Field(), v); err != nil {
			logger.Debug("extract.rule.skipped", "dialect", d.Name(), "field", string(rule.Field()), "error", err)
		}
	}
	return rec
}
