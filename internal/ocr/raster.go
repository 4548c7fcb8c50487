package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Rasterizer renders one PDF page to an image file for OCR.
// cleanup removes whatever Rasterize created and is safe to call on error.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page int) (imagePath string, cleanup func(), err error)
}

// PdftoppmRasterizer shells out to poppler's pdftoppm.
type PdftoppmRasterizer struct {
	Bin    string // default "pdftoppm"
	DPI    int    // 72 renders at the page's native size
	runner Runner
}

func (p PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath string, page int) (string, func(), error) {
	noop := func() {}
	tmpDir, err := os.MkdirTemp("", "nfse-pp-*")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	bin := p.Bin
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)

	// pdftoppm -r 72 -png -f N -l N -singlefile <in.pdf> <tmp/page>  ->  <tmp/page>.png
	_, errb, err := orExec(p.runner).Run(ctx, bin, "-r", strconv.Itoa(dpi), "-png", "-f", n, "-l", n, "-singlefile", pdfPath, prefix)
	if err != nil {
		return "", cleanup, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, truncate(string(errb), 512))
	}
	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("pdftoppm produced no image for page %d: %w", page, statErr)
	}
	return out, cleanup, nil
}
