package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/utils"
)

// Options configures an XLSXSink.
type Options struct {
	Template      string // workbook whose header rows are kept; empty -> fresh workbook
	Output        string
	Mode          string // constants.SinkModeTemplate | constants.SinkModeAppend
	MoneyFormat   string // constants.MoneyFormatRaw | constants.MoneyFormatDecimal
	Sheet         string // empty -> active sheet
	StartRow      int    // first data row, at least 3
	IncludeSource bool
}

// XLSXSink writes one spreadsheet row per record and saves the workbook on Close.
// It is not safe for concurrent use; a batch has a single writer.
type XLSXSink struct {
	opts    Options
	f       *excelize.File
	sheet   string
	fresh   bool
	next    int
	written int
	start   time.Time
	closed  bool
	logger  *slog.Logger
}

// OpenXLSX prepares the workbook the rows go into. Any failure to open the
// template or the existing output, or a header layout that does not match the
// columns, is a SinkWriteError.
func OpenXLSX(opts Options, logger *slog.Logger) (*XLSXSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Output == "" {
		return nil, common.NewSinkWriteError("output path is required", nil)
	}
	if opts.StartRow < 3 {
		opts.StartRow = 3
	}
	if opts.Mode == "" {
		opts.Mode = constants.SinkModeTemplate
	}

	s := &XLSXSink{opts: opts, start: time.Now(), logger: logger}

	source := opts.Template
	if opts.Mode == constants.SinkModeAppend {
		if _, err := os.Stat(opts.Output); err == nil {
			source = opts.Output
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewSinkWriteError("stat output "+opts.Output, err)
		}
	}

	if source == "" {
		s.f = excelize.NewFile()
		s.fresh = true
	} else {
		f, err := excelize.OpenFile(source)
		if err != nil {
			return nil, common.NewSinkWriteError("open workbook "+source, err)
		}
		s.f = f
	}

	err := s.selectSheet()
	if err != nil {
		_ = s.f.Close()
		return nil, err
	}
	if s.fresh {
		err = s.writeHeaders()
	} else {
		err = s.checkLayout()
	}
	if err != nil {
		_ = s.f.Close()
		return nil, err
	}

	s.next = opts.StartRow
	if opts.Mode == constants.SinkModeAppend {
		rows, err := s.f.GetRows(s.sheet)
		if err != nil {
			_ = s.f.Close()
			return nil, common.NewSinkWriteError("read rows", err)
		}
		if len(rows)+1 > s.next {
			s.next = len(rows) + 1
		}
	}

	logger.Info("export.xlsx.open",
		"source", source,
		"output", opts.Output,
		"sheet", s.sheet,
		"mode", opts.Mode,
		"first_row", s.next,
	)
	return s, nil
}

func (s *XLSXSink) selectSheet() error {
	if s.opts.Sheet == "" {
		s.sheet = s.f.GetSheetName(s.f.GetActiveSheetIndex())
		return nil
	}
	s.sheet = s.opts.Sheet
	if index, _ := s.f.GetSheetIndex(s.sheet); index != -1 {
		return nil
	}
	if !s.fresh {
		return common.NewSinkWriteError(fmt.Sprintf("sheet %q not found", s.sheet), nil)
	}
	if err := s.f.SetSheetName(s.f.GetSheetName(s.f.GetActiveSheetIndex()), s.sheet); err != nil {
		return common.NewSinkWriteError("rename sheet", err)
	}
	return nil
}

// checkLayout accepts a workbook when one of its header rows names the
// columns in order from column A, by title or by field key. Extra columns to
// the right are allowed.
func (s *XLSXSink) checkLayout() error {
	rows, err := s.f.GetRows(s.sheet)
	if err != nil {
		return common.NewSinkWriteError("read header rows", err)
	}
	for i := 0; i < len(rows) && i < s.opts.StartRow-1; i++ {
		if headerMatches(rows[i]) {
			return nil
		}
	}
	return common.NewSinkWriteError(
		fmt.Sprintf("sheet %q: no header row among rows 1-%d lists the %d columns", s.sheet, s.opts.StartRow-1, len(constants.Columns)),
		nil,
	)
}

func headerMatches(row []string) bool {
	if len(row) < len(constants.Columns) {
		return false
	}
	titles, keys := true, true
	for i, c := range constants.Columns {
		cell := strings.TrimSpace(row[i])
		titles = titles && strings.EqualFold(cell, c.Title)
		keys = keys && strings.EqualFold(cell, string(c.Field))
	}
	return titles || keys
}

// writeHeaders fills the two header rows of a fresh workbook: titles, then keys.
func (s *XLSXSink) writeHeaders() error {
	titles := make([]any, 0, len(constants.Columns)+1)
	keys := make([]any, 0, len(constants.Columns)+1)
	for _, c := range constants.Columns {
		titles = append(titles, c.Title)
		keys = append(keys, string(c.Field))
	}
	if s.opts.IncludeSource {
		titles = append(titles, constants.SourceColumnTitle)
		keys = append(keys, constants.SourceColumnKey)
	}
	if err := s.f.SetSheetRow(s.sheet, "A1", &titles); err != nil {
		return common.NewSinkWriteError("write header", err)
	}
	if err := s.f.SetSheetRow(s.sheet, "A2", &keys); err != nil {
		return common.NewSinkWriteError("write header", err)
	}
	return nil
}

// Write puts row at the next data row.
func (s *XLSXSink) Write(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return common.NewSinkWriteError("sink is closed", nil)
	}

	values := make([]any, 0, len(constants.Columns)+1)
	for _, c := range constants.Columns {
		values = append(values, s.cellValue(c, row.Record.Get(c.Field)))
	}
	if s.opts.IncludeSource {
		values = append(values, row.Source)
	}

	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		return common.NewSinkWriteError("row out of range", err)
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		return common.NewSinkWriteError("write row "+cell, err)
	}
	s.next++
	s.written++
	return nil
}

// cellValue converts money to a number in decimal mode. Values that do not
// parse are written as captured.
func (s *XLSXSink) cellValue(c constants.Column, v string) any {
	if !c.Money || s.opts.MoneyFormat != constants.MoneyFormatDecimal || v == constants.NotFound {
		return v
	}
	n, err := utils.ParseBRL(v)
	if err != nil {
		s.logger.Warn("export.money.unparsed", "field", string(c.Field), "value", v)
		return v
	}
	return n
}

// Rows returns the number of rows written so far.
func (s *XLSXSink) Rows() int { return s.written }

// Close saves the workbook to the output path. Rows already written are saved
// even when the batch stopped early.
func (s *XLSXSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.f.Close()

	if s.fresh {
		last := len(constants.Columns)
		if s.opts.IncludeSource {
			last++
		}
		end, _ := excelize.ColumnNumberToName(last)
		_ = s.f.SetColWidth(s.sheet, "A", end, 18)
	}

	if dir := filepath.Dir(s.opts.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return common.NewSinkWriteError("create output dir", err)
		}
	}
	if err := s.f.SaveAs(s.opts.Output); err != nil {
		return common.NewSinkWriteError("save "+s.opts.Output, err)
	}

	s.logger.Info("export.xlsx.ok",
		"output", s.opts.Output,
		"rows", s.written,
		"elapsed_ms", time.Since(s.start).Milliseconds(),
	)
	return nil
}
