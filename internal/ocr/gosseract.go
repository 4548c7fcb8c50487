//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// GosseractAvailable reports whether libtesseract was linked in.
const GosseractAvailable = true

// GosseractRecognizer drives libtesseract in-process. A gosseract client is not
// safe for concurrent use, so every call gets its own.
type GosseractRecognizer struct {
	Lang        string
	PSM         int
	TessdataDir string
}

func (g GosseractRecognizer) Recognize(_ context.Context, imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	lang := g.Lang
	if lang == "" {
		lang = "por"
	}
	if g.TessdataDir != "" {
		if err := client.SetTessdataPrefix(g.TessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(g.PSM)); err != nil {
		return "", fmt.Errorf("set psm: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return text, nil
}
