package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Estimate is the aggregate score/limit pair for one application.
// The zero value is the "no usable data" sentinel.
type Estimate struct {
	ProposedScore int `json:"proposed_score"`
	ProposedLimit int `json:"proposed_limit"`
}

// CreditEstimator produces one estimate per application from the texts of
// the documents that validated. Implementations degrade to the sentinel on
// any transport or parsing failure instead of failing the application.
type CreditEstimator interface {
	EstimateCredit(ctx context.Context, texts []string) Estimate
}

const estimatorSystemPrompt = "You are an assistant assessing creditworthiness for a credit application. " +
	"You will receive a JSON array of texts, each the content of one validated financial document belonging to the same applicant. " +
	"The applicant has no prior credit history. " +
	"Propose a credit score and a monthly credit limit in USD: " +
	`"proposed_score" must be an integer between 300 and 850; ` +
	`"proposed_limit" must be a non-negative integer, and in practice at least 1000 when the documents support any credit at all. ` +
	"Respond with a single JSON object with exactly these fields: " +
	`"proposed_score" (integer) and "proposed_limit" (integer). ` +
	"Return ONLY the JSON object, with no surrounding prose and no markdown code fence."

type Estimator struct {
	client ChatCompleter
	logger *slog.Logger
}

func NewEstimator(client ChatCompleter, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{client: client, logger: logger}
}

// EstimateCredit sends the valid documents' texts as one request and
// interprets the structured score/limit estimate. One outbound call per
// application regardless of document count.
func (e *Estimator) EstimateCredit(ctx context.Context, texts []string) Estimate {
	rid := uuid.New().String()
	start := time.Now()

	user, err := json.Marshal(texts)
	if err != nil {
		e.logger.Error("llm.estimate.encode_failed", "req_id", rid, "error", err)
		return Estimate{}
	}

	content, err := e.client.Complete(ctx, estimatorSystemPrompt, string(user))
	if err != nil {
		e.logger.Warn("llm.estimate.call_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Estimate{}
	}

	raw := []byte(StripMarkdownFence(content))
	if err := ValidateJSONAgainstSchema(BuildEstimateJSONSchema(), raw); err != nil {
		e.logger.Warn("llm.estimate.schema_validation_failed", "req_id", rid, "error", err,
			"content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
		return Estimate{}
	}

	var out Estimate
	if err := json.Unmarshal(raw, &out); err != nil {
		e.logger.Warn("llm.estimate.unmarshal_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Estimate{}
	}

	e.logger.Info("llm.estimate.ok", "req_id", rid,
		"proposed_score", out.ProposedScore, "proposed_limit", out.ProposedLimit,
		"docs", len(texts), "elapsed_ms", time.Since(start).Milliseconds())
	return out
}
