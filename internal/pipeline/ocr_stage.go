package processor

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/ocr"
)

// TextAcquirer reads the raw text of a document. *ocr.Acquirer implements it.
type TextAcquirer interface {
	Acquire(ctx context.Context, path string) ocr.Acquisition
}

type OCRStage struct {
	Acquirer TextAcquirer
	Logger   *slog.Logger
}

func NewOCRStage(acq TextAcquirer, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{Acquirer: acq, Logger: logger}
}

// Run acquires the document's text and normalizes it. It never fails; the
// acquisition carries whatever went wrong.
func (s *OCRStage) Run(ctx context.Context, doc entity.Document) (ocr.Acquisition, string) {
	acq := s.Acquirer.Acquire(ctx, doc.Path)
	text := ocr.Normalize(acq.Text)
	if text == "" {
		s.Logger.Warn("ocr_stage.empty_text", "doc", doc.Name, "pages", acq.Pages, "error", acq.Err)
	}
	return acq, text
}
