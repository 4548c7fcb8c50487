package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/extract"
	"github.com/joseph-ayodele/nfse-extractor/internal/ocr"
)

type output struct {
	Path       string             `json:"path"`
	Pages      int                `json:"pages"`
	Method     string             `json:"method"`
	Warnings   []string           `json:"warnings,omitempty"`
	Error      string             `json:"error,omitempty"`
	Dialect    string             `json:"dialect"`
	Text       string             `json:"text"`
	RawText    string             `json:"raw_text,omitempty"`
	Record     entity.FieldRecord `json:"record"`
	Review     string             `json:"review,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional, defaults to $NFSE_CONFIG)")
		psm        = flag.Int("psm", -1, "tesseract page segmentation mode")
		dialect    = flag.String("dialect", "", "document layout: auto, labeled or positional")
		raw        = flag.Bool("raw", false, "include the text before normalization")
	)
	flag.Parse()

	// stdout carries the JSON document
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "nfse-text [-psm N] [-dialect name] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *psm >= 0 {
		cfg.OCR.PSM = *psm
	}
	if *dialect != "" {
		cfg.Extract.Dialect = *dialect
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Batch.DocTimeout)
	defer cancel()

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
		logger.Error("configure dialect", "error", err)
		os.Exit(2)
	}
	reviewer, err := extract.NewReviewer()
	if err != nil {
		logger.Error("build record schema", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	acq := acquirer.Acquire(ctx, path)
	text := ocr.Normalize(acq.Text)
	res := engine.Extract(text)

	out := output{
		Path:       path,
		Pages:      acq.Pages,
		Method:     acq.Method(),
		Warnings:   acq.Warnings,
		Dialect:    res.Dialect,
		Text:       text,
		Record:     res.Record,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if acq.Err != nil {
		out.Error = acq.Err.Error()
	}
	if *raw {
		out.RawText = acq.Text
	}
	if err := reviewer.Review(res.Record); err != nil {
		out.Review = err.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
	if acq.Err != nil {
		os.Exit(1)
	}
}
