//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned by GosseractRecognizer when the binary was built
// without the "ocr" tag. Rebuild with -tags ocr (needs libtesseract headers) or
// use the tesseract CLI engine.
var ErrOCRNotEnabled = errors.New("in-process OCR not enabled; rebuild with -tags ocr")

// GosseractAvailable reports whether libtesseract was linked in.
const GosseractAvailable = false

// GosseractRecognizer is the stub used without the "ocr" build tag.
type GosseractRecognizer struct {
	Lang        string
	PSM         int
	TessdataDir string
}

func (GosseractRecognizer) Recognize(context.Context, string) (string, error) {
	return "", ErrOCRNotEnabled
}
