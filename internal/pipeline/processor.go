package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/ocr"
)

// Processor runs one document through text acquisition, then field extraction.
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, ocrStage *OCRStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocrStage, Parse: parse}
}

// Result is the outcome of one document. Record always holds every field.
type Result struct {
	Doc         entity.Document
	Record      entity.FieldRecord
	Dialect     string
	Status      constants.DocumentStatus
	Method      string
	Pages       int
	NeedsReview bool
	Err         error
	Duration    time.Duration
}

// ProcessDocument never fails: read errors and timeouts are reported in the
// result and the record keeps whatever fields the acquired text yielded.
func (p *Processor) ProcessDocument(ctx context.Context, doc entity.Document) Result {
	start := time.Now()
	logger := common.LoggerFrom(ctx, p.Logger).With("doc", doc.Name)

	acq, text := p.OCR.Run(ctx, doc)
	parsed, reviewErr := p.Parse.Run(text)

	res := Result{
		Doc:         doc,
		Record:      parsed.Record,
		Dialect:     parsed.Dialect,
		Method:      acq.Method(),
		Pages:       acq.Pages,
		NeedsReview: errors.Is(reviewErr, common.ErrValidation),
		Err:         acq.Err,
	}
	res.Status = status(acq, text, parsed.Record)
	res.Duration = time.Since(start)

	switch {
	case res.NeedsReview:
		logger.Warn("processor.review.failed", "error", reviewErr)
	case reviewErr != nil:
		logger.Error("processor.review.error", "error", reviewErr)
	}
	attrs := []any{
		"status", res.Status,
		"dialect", res.Dialect,
		"method", res.Method,
		"pages", res.Pages,
		"matched", res.Record.Matched(),
		"elapsed_ms", res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		logger.Error("processor.document.failed", append(attrs, "error", res.Err)...)
	} else {
		logger.Info("processor.document.ok", attrs...)
	}
	return res
}

func status(acq ocr.Acquisition, text string, rec entity.FieldRecord) constants.DocumentStatus {
	switch {
	case errors.Is(acq.Err, common.ErrTimeout), errors.Is(acq.Err, context.DeadlineExceeded):
		return constants.DocumentStatusTimedOut
	case errors.Is(acq.Err, common.ErrDocumentRead) && text == "":
		return constants.DocumentStatusReadFailed
	case acq.Partial(), rec.Matched() == 0:
		return constants.DocumentStatusPartial
	}
	return constants.DocumentStatusOK
}
