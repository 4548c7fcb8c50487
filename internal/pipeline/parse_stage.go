package processor

import (
	"log/slog"

	"github.com/joseph-ayodele/nfse-extractor/internal/extract"
)

type ParseStage struct {
	Engine   *extract.Engine
	Reviewer *extract.Reviewer // optional
	Logger   *slog.Logger
}

func NewParseStage(engine *extract.Engine, reviewer *extract.Reviewer, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Engine: engine, Reviewer: reviewer, Logger: logger}
}

// Run extracts the fields of normalized text and reports whether the record
// failed the shape review.
func (s *ParseStage) Run(text string) (extract.Result, error) {
	res := s.Engine.Extract(text)
	if s.Reviewer == nil {
		return res, nil
	}
	return res, s.Reviewer.Review(res.Record)
}
