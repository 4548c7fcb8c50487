package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/async"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
	"github.com/joseph-ayodele/nfse-extractor/internal/extract"
	"github.com/joseph-ayodele/nfse-extractor/internal/ingest"
	"github.com/joseph-ayodele/nfse-extractor/internal/ocr"
	processor "github.com/joseph-ayodele/nfse-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		configPath    = flag.String("config", "", "YAML config file (optional, defaults to $NFSE_CONFIG)")
		dir           = flag.String("dir", "", "directory with NFS-e PDFs (required unless set in config)")
		template      = flag.String("template", "", "template workbook; rows 1-2 are kept")
		out           = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		appendRows    = flag.Bool("append", false, "append to an existing output instead of starting from the template")
		workers       = flag.Int("workers", 0, "concurrent documents")
		psm           = flag.Int("psm", -1, "tesseract page segmentation mode")
		dialect       = flag.String("dialect", "", "document layout: auto, labeled or positional")
		timeout       = flag.Duration("timeout", 0, "per-document time limit")
		money         = flag.String("money", "", "money cells: raw or decimal")
		includeHidden = flag.Bool("include-hidden", false, "also read hidden files and directories")
		debug         = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// Flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Batch.InputDir = *dir
		case "template":
			cfg.Sink.Template = *template
		case "out":
			cfg.Sink.Output = *out
		case "append":
			if *appendRows {
				cfg.Sink.Mode = constants.SinkModeAppend
			} else {
				cfg.Sink.Mode = constants.SinkModeTemplate
			}
		case "workers":
			cfg.Batch.Workers = *workers
		case "psm":
			cfg.OCR.PSM = *psm
		case "dialect":
			cfg.Extract.Dialect = *dialect
		case "timeout":
			cfg.Batch.DocTimeout = *timeout
		case "money":
			cfg.Sink.MoneyFormat = *money
		}
	})

	// If output file not specified, use parent directory with default filename
	if cfg.Sink.Output == "" && cfg.Batch.InputDir != "" {
		cfg.Sink.Output = filepath.Join(filepath.Dir(filepath.Clean(cfg.Batch.InputDir)), "nfse.xlsx")
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, stats, err := ingest.ListDocuments(cfg.Batch.InputDir, !*includeHidden, logger)
	if err != nil {
		logger.Error("failed to list documents", "error", err)
		os.Exit(1)
	}
	logger.Info("documents found", "dir", cfg.Batch.InputDir, "documents", len(docs), "scanned", stats.Scanned, "failed", stats.Failed)

	acquirer := ocr.NewAcquirer(ocr.Config{
		Engine:      cfg.OCR.Engine,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
	}, logger)

	engine := extract.NewEngine(logger)
	if err := engine.Configure(cfg.Extract.Dialect); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	reviewer, err := extract.NewReviewer()
	if err != nil {
		logger.Error("failed to build record schema", "error", err)
		os.Exit(1)
	}

	proc := processor.NewProcessor(logger,
		processor.NewOCRStage(acquirer, logger),
		processor.NewParseStage(engine, reviewer, logger),
	)

	sink, err := export.OpenXLSX(export.Options{
		Template:      cfg.Sink.Template,
		Output:        cfg.Sink.Output,
		Mode:          cfg.Sink.Mode,
		MoneyFormat:   cfg.Sink.MoneyFormat,
		Sheet:         cfg.Sink.Sheet,
		StartRow:      cfg.Sink.StartRow,
		IncludeSource: cfg.Sink.IncludeSource,
	}, logger)
	if err != nil {
		logger.Error("failed to open output workbook", "error", err)
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	runner := async.NewBatchRunner(proc, sink, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithProcessTimeout(cfg.Batch.DocTimeout),
	)
	summary, runErr := runner.Run(ctx, docs)

	// Rows written before a failure are still saved
	closeErr := sink.Close()

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Batch: %s\n", summary.BatchID)
	fmt.Printf("- Documents: %d\n", summary.Documents)
	fmt.Printf("- Rows written: %d\n", summary.RowsWritten)
	fmt.Printf("- OK: %d, partial: %d, read failed: %d, timed out: %d, skipped: %d\n",
		summary.OK, summary.Partial, summary.ReadFailed, summary.TimedOut, summary.Skipped)
	fmt.Printf("- Needs review: %d\n", summary.NeedsReview)
	fmt.Printf("- Elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("- Output: %s\n", cfg.Sink.Output)

	if runErr != nil {
		printError("Error: %v\n", runErr)
		os.Exit(1)
	}
	if closeErr != nil {
		printError("Error: %v\n", closeErr)
		os.Exit(1)
	}
}
