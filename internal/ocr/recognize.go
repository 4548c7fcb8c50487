package ocr

import (
	"context"
	"fmt"
	"strconv"
)

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// TesseractRecognizer runs the tesseract CLI with a fixed page-segmentation mode.
type TesseractRecognizer struct {
	Bin         string // default "tesseract"
	Lang        string // default "por"
	PSM         int
	TessdataDir string
	runner      Runner
}

func (t TesseractRecognizer) args(imagePath string) []string {
	lang := t.Lang
	if lang == "" {
		lang = "por"
	}
	args := []string{imagePath, "stdout", "-l", lang, "--psm", strconv.Itoa(t.PSM)}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	return args
}

func (t TesseractRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	bin := t.Bin
	if bin == "" {
		bin = "tesseract"
	}
	// tesseract <img> stdout -l por --psm 6
	out, errb, err := orExec(t.runner).Run(ctx, bin, t.args(imagePath)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
