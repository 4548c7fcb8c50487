package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
)

type Config struct {
	Engine      string // constants.OCREngineCLI (default) | constants.OCREngineGosseract
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "por"
	TessdataDir string
	PSM         int // page segmentation mode passed to tesseract
	DPI         int // rasterization DPI for image-only pages, default 72
	MaxPages    int // 0 = no limit

	RetryBackoff time.Duration // wait before the single retry of a transient open failure
}

// Page sources.
const (
	SourceText = "pdf-text"
	SourceOCR  = "pdf-ocr"
)

// Acquisition is the raw text of one document plus how it was obtained.
// Err is informational: Acquire never fails, it returns what it could read.
type Acquisition struct {
	Text        string
	Pages       int
	PageSources []string // SourceText or SourceOCR per page read; "" for a failed page
	FailedPages int
	Warnings    []string
	Duration    time.Duration
	Err         error
}

// Method summarizes PageSources: "pdf-text", "pdf-ocr", "mixed" or "" when nothing was read.
func (a Acquisition) Method() string {
	var text, ocr bool
	for _, s := range a.PageSources {
		switch s {
		case SourceText:
			text = true
		case SourceOCR:
			ocr = true
		}
	}
	switch {
	case text && ocr:
		return "mixed"
	case text:
		return SourceText
	case ocr:
		return SourceOCR
	}
	return ""
}

// Partial reports whether some of the document could not be read.
func (a Acquisition) Partial() bool {
	return a.Err != nil || a.FailedPages > 0
}

type Acquirer struct {
	cfg        Config
	open       PageOpener
	count      PageCounter
	rasterizer Rasterizer
	recognizer Recognizer
	logger     *slog.Logger
}

type Option func(*Acquirer)

// WithPageOpener replaces the ledongthuc/pdf text-layer reader.
func WithPageOpener(open PageOpener) Option {
	return func(a *Acquirer) {
		if open != nil {
			a.open = open
		}
	}
}

// WithPageCounter replaces the pdfcpu page counter used when the text layer cannot be opened.
func WithPageCounter(count PageCounter) Option {
	return func(a *Acquirer) {
		if count != nil {
			a.count = count
		}
	}
}

func WithRasterizer(r Rasterizer) Option {
	return func(a *Acquirer) {
		if r != nil {
			a.rasterizer = r
		}
	}
}

func WithRecognizer(r Recognizer) Option {
	return func(a *Acquirer) {
		if r != nil {
			a.recognizer = r
		}
	}
}

// WithRunner routes pdftoppm and tesseract through r.
func WithRunner(r Runner) Option {
	return func(a *Acquirer) {
		if r == nil {
			return
		}
		if p, ok := a.rasterizer.(PdftoppmRasterizer); ok {
			p.runner = r
			a.rasterizer = p
		}
		if t, ok := a.recognizer.(TesseractRecognizer); ok {
			t.runner = r
			a.recognizer = t
		}
	}
}

func NewAcquirer(cfg Config, logger *slog.Logger, opts ...Option) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Engine == "" {
		cfg.Engine = constants.OCREngineCLI
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 72
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}

	runner := execRunner{logger: logger}
	a := &Acquirer{
		cfg:        cfg,
		open:       openPDFPages,
		count:      countPagesRelaxed,
		rasterizer: PdftoppmRasterizer{Bin: cfg.Pdftoppm, DPI: cfg.DPI, runner: runner},
		logger:     logger,
	}
	switch cfg.Engine {
	case constants.OCREngineGosseract:
		if !GosseractAvailable {
			logger.Warn("gosseract engine requested but not compiled in; OCR pages will fail", "hint", "build with -tags ocr")
		}
		a.recognizer = GosseractRecognizer{Lang: cfg.Lang, PSM: cfg.PSM, TessdataDir: cfg.TessdataDir}
	default:
		a.recognizer = TesseractRecognizer{Bin: cfg.Tesseract, Lang: cfg.Lang, PSM: cfg.PSM, TessdataDir: cfg.TessdataDir, runner: runner}
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Acquire reads every page of the PDF at path, using the embedded text layer
// where it has content and rasterize+OCR where it does not. Pages are joined
// with a newline in page order. A page that fails is logged and skipped; an
// unreadable document yields empty text with Err set to a DocumentReadError.
//
// Reading happens on its own goroutine. Once ctx is done Acquire returns the
// pages read so far with Err wrapping ErrTimeout, even when a page decode
// never returns; that decode is left to finish in the background.
func (a *Acquirer) Acquire(ctx context.Context, path string) Acquisition {
	start := time.Now()
	logger := common.LoggerFrom(ctx, a.logger).With("path", path)

	st := &pageLog{}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		a.read(ctx, logger, path, st)
	}()

	abandoned := false
	select {
	case <-finished:
	case <-ctx.Done():
		select {
		case <-finished:
		default:
			abandoned = true
		}
	}

	res := st.snapshot()
	res.Duration = time.Since(start)
	if abandoned {
		res.Err = fmt.Errorf("%w after %d pages, page decode still running: %w", common.ErrTimeout, res.Pages, ctx.Err())
		logger.Error("acquire.abandoned", "pages_read", res.Pages, "bytes", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
		return res
	}
	if errors.Is(res.Err, common.ErrDocumentRead) {
		return res
	}
	logger.Info("acquire.ok",
		"pages", res.Pages,
		"method", res.Method(),
		"failed_pages", res.FailedPages,
		"bytes", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res
}

// read fills st page by page. Between pages it checks ctx and stops early once
// it is done.
func (a *Acquirer) read(ctx context.Context, logger *slog.Logger, path string, st *pageLog) {
	src, err := a.openWithRetry(ctx, logger, path)
	if err != nil {
		st.fail(common.NewDocumentReadError(path, err))
		logger.Error("acquire.open.failed", "error", err)
		return
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("acquire.close.failed", "error", cerr)
		}
	}()

	n := src.NumPages()
	if a.cfg.MaxPages > 0 && n > a.cfg.MaxPages {
		st.warn(fmt.Sprintf("read %d of %d pages", a.cfg.MaxPages, n))
		n = a.cfg.MaxPages
	}

	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			st.fail(fmt.Errorf("%w after %d of %d pages: %w", common.ErrTimeout, page-1, n, err))
			logger.Warn("acquire.interrupted", "pages_read", page-1, "pages", n)
			return
		}
		text, source, err := a.pageText(ctx, logger, src, path, page)
		if err != nil {
			logger.Error("acquire.page.failed", "page", page, "error", err)
		}
		st.add(page, text, source, err)
	}
}

// pageLog collects pages as they are read. Acquire may take a snapshot while
// the reading goroutine is still blocked inside a page.
type pageLog struct {
	mu  sync.Mutex
	res Acquisition
	b   strings.Builder
}

func (p *pageLog) add(page int, text, source string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.res.Pages++
	p.res.PageSources = append(p.res.PageSources, source)
	if err != nil {
		p.res.FailedPages++
		p.res.Warnings = append(p.res.Warnings, fmt.Sprintf("page %d: %v", page, err))
		return
	}
	if p.b.Len() > 0 {
		p.b.WriteByte('\n')
	}
	p.b.WriteString(text)
}

func (p *pageLog) warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.res.Warnings = append(p.res.Warnings, msg)
}

func (p *pageLog) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.res.Err = err
}

func (p *pageLog) snapshot() Acquisition {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.res
	res.PageSources = append([]string(nil), p.res.PageSources...)
	res.Warnings = append([]string(nil), p.res.Warnings...)
	res.Text = p.b.String()
	return res
}

func (a *Acquirer) pageText(ctx context.Context, logger *slog.Logger, src PageSource, path string, page int) (string, string, error) {
	text, err := src.PageText(page)
	if err != nil {
		logger.Warn("acquire.page.text_layer_failed", "page", page, "error", err)
	}
	if strings.TrimSpace(text) != "" {
		return text, SourceText, nil
	}

	img, cleanup, err := a.rasterizer.Rasterize(ctx, path, page)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", "", fmt.Errorf("rasterize: %w", err)
	}
	ocrText, err := a.recognizer.Recognize(ctx, img)
	if err != nil {
		return "", "", fmt.Errorf("ocr: %w", err)
	}
	logger.Debug("acquire.page.ocr", "page", page, "psm", a.cfg.PSM, "bytes", len(ocrText))
	return ocrText, SourceOCR, nil
}

// openWithRetry opens the text layer, retrying once on a transient I/O error.
// If the text layer cannot be decoded at all but pdfcpu can still read the page
// tree, every page is handed to OCR instead.
func (a *Acquirer) openWithRetry(ctx context.Context, logger *slog.Logger, path string) (PageSource, error) {
	src, err := a.open(path)
	if err != nil && isTransient(err) {
		logger.Warn("acquire.open.retry", "error", err, "backoff_ms", a.cfg.RetryBackoff.Milliseconds())
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(a.cfg.RetryBackoff):
		}
		src, err = a.open(path)
	}
	if err == nil {
		return src, nil
	}

	n, cerr := a.count(path)
	if cerr != nil || n <= 0 {
		return nil, err
	}
	logger.Warn("acquire.text_layer_unreadable", "error", err, "pages", n)
	return blankPages{n: n}, nil
}

// isTransient reports whether an open failure is worth a second attempt.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
