package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-backend/constants"
	"credit-backend/internal/common"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}

// Extractor converts a raw uploaded document into plain text. It is a pure
// transform: no network access, and every failure is a typed, document-local
// error the pipeline folds into a negative result.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the declared content type.
func (e *Extractor) Extract(ctx context.Context, filename, contentType string, data []byte) (Result, error) {
	start := time.Now()
	ct := constants.NormalizeContentType(contentType)
	e.logger.Debug("extract.start", "filename", filename, "content_type", ct, "bytes", len(data))

	switch constants.MapContentTypeToFormat(ct) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Warn("extract.unsupported_content_type", "filename", filename, "content_type", ct)
		return Result{}, fmt.Errorf("%w: %q", common.ErrUnsupportedType, ct)
	}
}
