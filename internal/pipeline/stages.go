package pipeline

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"

	"credit-backend/constants"
	"credit-backend/internal/entity"
)

// extractDocument resolves one uploaded file to an ExtractedDocument.
// Extraction failures (unsupported type, decode error, parse error) are
// expected and frequent; they become a null-text record with a reason,
// never an error that could stop sibling files.
func (p *Processor) extractDocument(ctx context.Context, appID uuid.UUID, file entity.UploadedDocument) entity.ExtractedDocument {
	doc := entity.ExtractedDocument{
		Filename:    file.Filename,
		EncodedData: base64.StdEncoding.EncodeToString(file.Data),
	}

	res, err := p.extractor.Extract(ctx, file.Filename, file.ContentType, file.Data)
	if err != nil {
		reason := err.Error()
		doc.FailureReason = &reason
		p.logger.Warn("pipeline.extract.failed",
			"application_id", appID, "filename", file.Filename,
			"content_type", file.ContentType, "error", err)
		return doc
	}

	doc.Text = &res.Text
	p.logger.Info("pipeline.extract.ok",
		"application_id", appID, "filename", file.Filename,
		"method", res.Method, "pages", res.Pages, "text_len", len(res.Text))
	return doc
}

// validateDocument obtains the per-document verdict. Documents with no
// extracted text are marked invalid deterministically and never reach the
// LLM; everything else gets one validator call, attributable back to the
// originating filename.
func (p *Processor) validateDocument(ctx context.Context, appID uuid.UUID, doc entity.ExtractedDocument) entity.ValidationResult {
	if doc.Text == nil || *doc.Text == "" {
		return entity.ValidationResult{
			Filename: doc.Filename,
			IsValid:  false,
			Reason:   constants.NoTextReason,
		}
	}

	out := p.validator.ValidateDocument(ctx, *doc.Text)
	p.logger.Info("pipeline.validate.done",
		"application_id", appID, "filename", doc.Filename, "is_valid", out.IsValid)
	return entity.ValidationResult{
		Filename:   doc.Filename,
		IsValid:    out.IsValid,
		Reason:     out.Reason,
		SourceText: *doc.Text,
	}
}
