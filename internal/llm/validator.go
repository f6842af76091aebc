package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ValidationOutcome is the verdict for one document's text.
type ValidationOutcome struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason"`
}

// DocumentValidator decides per-document validity. Implementations never
// return an error for a single document's LLM failure: transport problems
// and malformed replies degrade to a negative outcome with a diagnostic
// reason, so one bad document cannot abort an application batch.
type DocumentValidator interface {
	ValidateDocument(ctx context.Context, text string) ValidationOutcome
}

const validatorSystemPrompt = "You are an assistant validating financial statements submitted for a credit application. " +
	"You will receive the text extracted from a single document. Decide whether it is an acceptable financial document: " +
	"it must contain the mandatory fields of a financial record, in particular a date and at least one monetary amount; " +
	"numbers must be plausible and internally consistent; " +
	"be tolerant of OCR and PDF-extraction noise (misread characters, broken spacing) as long as the substance is recognizable; " +
	"mark the document invalid if it appears fabricated or fraudulent. " +
	"Respond with a single JSON object with exactly these fields: " +
	`"is_valid" (boolean) and "reason" (string, a short human-readable explanation). ` +
	"Return ONLY the JSON object, with no surrounding prose and no markdown code fence."

type Validator struct {
	client ChatCompleter
	logger *slog.Logger
}

func NewValidator(client ChatCompleter, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{client: client, logger: logger}
}

// ValidateDocument sends one document's extracted text for validation and
// interprets the structured verdict.
func (v *Validator) ValidateDocument(ctx context.Context, text string) ValidationOutcome {
	rid := uuid.New().String()
	start := time.Now()

	content, err := v.client.Complete(ctx, validatorSystemPrompt, text)
	if err != nil {
		v.logger.Warn("llm.validate.call_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return ValidationOutcome{IsValid: false, Reason: fmt.Sprintf("document validation failed: %v", err)}
	}

	raw := []byte(StripMarkdownFence(content))
	if err := ValidateJSONAgainstSchema(BuildValidationJSONSchema(), raw); err != nil {
		v.logger.Warn("llm.validate.schema_validation_failed", "req_id", rid, "error", err,
			"content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
		return ValidationOutcome{IsValid: false, Reason: fmt.Sprintf("could not parse validation response: %v", err)}
	}

	var out ValidationOutcome
	if err := json.Unmarshal(raw, &out); err != nil {
		v.logger.Warn("llm.validate.unmarshal_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return ValidationOutcome{IsValid: false, Reason: fmt.Sprintf("could not parse validation response: %v", err)}
	}

	v.logger.Info("llm.validate.ok", "req_id", rid, "is_valid", out.IsValid,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out
}
