package ocr

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PageSource exposes the embedded text layer of an opened PDF, one page at a time.
// Pages are numbered from 1.
type PageSource interface {
	NumPages() int
	PageText(n int) (string, error)
	Close() error
}

// PageOpener opens path for page-by-page reading.
type PageOpener func(path string) (PageSource, error)

type pdfPages struct {
	f *os.File
	r *pdf.Reader
}

// newPDFReader is pdf.NewReader; tests swap it to simulate a decoder panic.
var newPDFReader = pdf.NewReader

// openPDFPages opens path with ledongthuc/pdf. The decoder panics on some
// malformed files, so both opening and page decoding recover into errors.
// The file is closed on every failure path, panics included.
func openPDFPages(path string) (src PageSource, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = f.Close()
			src, err = nil, fmt.Errorf("pdf open panic: %v", r)
		}
	}()
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r, err := newPDFReader(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &pdfPages{f: f, r: r}, nil
}

func (p *pdfPages) NumPages() int {
	return p.r.NumPage()
}

func (p *pdfPages) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d decode panic: %v", n, r)
		}
	}()
	page := p.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *pdfPages) Close() error {
	return p.f.Close()
}

// blankPages stands in for a document whose text layer cannot be decoded but
// whose page tree is intact: every page reads as empty and goes to OCR.
type blankPages struct {
	n int
}

func (b blankPages) NumPages() int                { return b.n }
func (b blankPages) PageText(int) (string, error) { return "", nil }
func (b blankPages) Close() error                 { return nil }
