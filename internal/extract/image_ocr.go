package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for the supported upload types
	_ "image/png"
	"os"
	"path/filepath"

	"credit-backend/constants"
	"credit-backend/internal/common"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte) (Result, error) {
	// Decode first so corrupt uploads fail fast without spawning tesseract.
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return Result{SourceType: constants.IMAGE}, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}

	txt, warn, err := e.tesseractOCR(ctx, data)
	if err != nil {
		return Result{SourceType: constants.IMAGE, Warnings: warn}, err
	}

	return Result{
		Text:       CollapseLines(txt),
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Warnings:   warn,
	}, nil
}

// tesseractOCR writes the raster to a temp file and shells out to tesseract.
func (e *Extractor) tesseractOCR(ctx context.Context, data []byte) (string, []string, error) {
	tmpDir, err := os.MkdirTemp("", "cb-ocr-*")
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("extract.tmpdir_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	path := filepath.Join(tmpDir, "page.img")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, err
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
