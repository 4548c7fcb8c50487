package async

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
	processor "github.com/joseph-ayodele/nfse-extractor/internal/pipeline"
)

// BatchRunner processes documents on a bounded pool of workers and writes one
// row per document to a sink, in input order, from a single goroutine.
type BatchRunner struct {
	proc     DocumentProcessor
	sink     export.Sink
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	grace    time.Duration // extra wait past timeout before a document is abandoned
	progress func(processor.Result)
}

type Option func(*BatchRunner)

func WithWorkers(n int) Option {
	return func(r *BatchRunner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithProcessTimeout bounds the wall-clock time of a single document.
func WithProcessTimeout(d time.Duration) Option {
	return func(r *BatchRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithProgress is called for every document, in input order, after its row is written.
func WithProgress(fn func(processor.Result)) Option {
	return func(r *BatchRunner) {
		r.progress = fn
	}
}

func NewBatchRunner(proc DocumentProcessor, sink export.Sink, logger *slog.Logger, opts ...Option) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &BatchRunner{
		proc:    proc,
		sink:    sink,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		grace:   5 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// BatchSummary counts what happened to the documents of one run.
type BatchSummary struct {
	BatchID     uuid.UUID
	Documents   int
	RowsWritten int
	OK          int
	Partial     int
	ReadFailed  int
	TimedOut    int
	Skipped     int
	NeedsReview int
	Elapsed     time.Duration
	Results     []processor.Result // input order
}

func (s *BatchSummary) add(res processor.Result) {
	switch res.Status {
	case constants.DocumentStatusOK:
		s.OK++
	case constants.DocumentStatusPartial:
		s.Partial++
	case constants.DocumentStatusReadFailed:
		s.ReadFailed++
	case constants.DocumentStatusTimedOut:
		s.TimedOut++
	case constants.DocumentStatusSkipped:
		s.Skipped++
	}
	if res.NeedsReview {
		s.NeedsReview++
	}
	s.Results = append(s.Results, res)
}

// Run processes docs and writes their rows. Cancelling ctx stops documents
// from starting; documents already running finish under their own timeout.
// A sink failure stops the batch and is returned; rows written before it stay
// in the sink, which the caller closes.
func (r *BatchRunner) Run(ctx context.Context, docs []entity.Document) (BatchSummary, error) {
	start := time.Now()
	summary := BatchSummary{BatchID: uuid.New(), Documents: len(docs)}
	ctx = common.WithBatchID(ctx, summary.BatchID.String())
	logger := common.LoggerFrom(ctx, r.logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("batch.start", "documents", len(docs), "workers", r.workers, "doc_timeout_ms", r.timeout.Milliseconds())

	results := make(chan done, r.workers)
	written := make(chan error, 1)
	go func() {
		written <- r.writeInOrder(context.WithoutCancel(ctx), logger, cancel, results, &summary)
	}()

	var g errgroup.Group
	g.SetLimit(r.workers)
	for pos, doc := range docs {
		j := job{pos: pos, doc: doc}
		g.Go(func() error {
			results <- done{pos: j.pos, res: r.process(runCtx, logger, j.doc)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	err := <-written

	summary.Elapsed = time.Since(start)
	attrs := []any{
		"documents", summary.Documents,
		"rows", summary.RowsWritten,
		"ok", summary.OK,
		"partial", summary.Partial,
		"read_failed", summary.ReadFailed,
		"timed_out", summary.TimedOut,
		"skipped", summary.Skipped,
		"needs_review", summary.NeedsReview,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	}
	if err != nil {
		logger.Error("batch.aborted", append(attrs, "error", err)...)
		return summary, err
	}
	logger.Info("batch.ok", attrs...)
	return summary, nil
}

// process runs one document under its own deadline. The deadline is detached
// from batch cancellation so a running OCR is never cut short by it.
// The processor is expected to return at the deadline with whatever it read.
// One that is still running grace later is abandoned on its goroutine and the
// document gets an all-sentinel TIMED_OUT row, so the worker is freed.
func (r *BatchRunner) process(runCtx context.Context, logger *slog.Logger, doc entity.Document) processor.Result {
	if err := runCtx.Err(); err != nil {
		logger.Info("batch.document.skipped", "doc", doc.Name, "reason", context.Cause(runCtx))
		return processor.Result{Doc: doc, Record: entity.NewFieldRecord(), Status: constants.DocumentStatusSkipped, Err: err}
	}
	start := time.Now()
	docCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), r.timeout)
	defer cancel()
	docCtx = common.WithDocumentID(docCtx, doc.ID.String())

	out := make(chan processor.Result, 1)
	go func() {
		out <- r.proc.ProcessDocument(docCtx, doc)
	}()

	abandon := time.NewTimer(r.timeout + r.grace)
	defer abandon.Stop()
	select {
	case res := <-out:
		return res
	case <-abandon.C:
	}

	logger.Error("batch.document.abandoned", "doc", doc.Name, "timeout_ms", r.timeout.Milliseconds())
	return processor.Result{
		Doc:      doc,
		Record:   entity.NewFieldRecord(),
		Status:   constants.DocumentStatusTimedOut,
		Err:      fmt.Errorf("%w: processor did not return: %w", common.ErrTimeout, context.DeadlineExceeded),
		Duration: time.Since(start),
	}
}

// writeInOrder is the only goroutine touching the sink. It buffers results
// that complete ahead of their turn. After a sink error it keeps draining
// results without writing, and cancels the batch.
func (r *BatchRunner) writeInOrder(ctx context.Context, logger *slog.Logger, cancel context.CancelFunc, results <-chan done, summary *BatchSummary) error {
	pending := make(map[int]processor.Result)
	next := 0
	var sinkErr error

	for d := range results {
		pending[d.pos] = d.res
		for {
			res, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if sinkErr == nil && res.Status.WritesRow() {
				if err := r.sink.Write(ctx, export.Row{Record: res.Record, Source: res.Doc.Name}); err != nil {
					sinkErr = common.NewSinkWriteError("write row for "+res.Doc.Name, err)
					logger.Error("batch.sink.failed", "doc", res.Doc.Name, "error", err)
					cancel()
				} else {
					summary.RowsWritten++
				}
			}
			summary.add(res)
			if r.progress != nil {
				r.progress(res)
			}
		}
	}
	return sinkErr
}
