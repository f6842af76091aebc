package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"credit-backend/internal/common"
	"credit-backend/internal/entity"
	"credit-backend/internal/extract"
	"credit-backend/internal/llm"
	"credit-backend/internal/repository"
)

// TextExtractor is the extraction-stage dependency.
type TextExtractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (extract.Result, error)
}

// Summary is the caller-facing outcome of one batch. It is deliberately
// opaque: which documents failed, and why, is an internal concern surfaced
// only through the admin query surface.
type Summary struct {
	ApplicationID uuid.UUID
	Succeeded     bool
	Message       string
}

const (
	successMessage = "Application received; documents processed."
	failureMessage = "Application could not be processed from the submitted documents."
)

// Processor drives one application's document batch through extraction,
// per-document validation, and aggregate credit estimation, then persists
// the assembled record. One bad document never aborts the batch; only a
// store failure is batch-fatal.
type Processor struct {
	logger      *slog.Logger
	extractor   TextExtractor
	validator   llm.DocumentValidator
	estimator   llm.CreditEstimator
	apps        repository.ApplicationRepository
	maxParallel int
}

func NewProcessor(
	logger *slog.Logger,
	extractor TextExtractor,
	validator llm.DocumentValidator,
	estimator llm.CreditEstimator,
	apps repository.ApplicationRepository,
	maxParallel int,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Processor{
		logger:      logger,
		extractor:   extractor,
		validator:   validator,
		estimator:   estimator,
		apps:        apps,
		maxParallel: maxParallel,
	}
}

// ProcessApplication runs the whole batch for one applicant. The returned
// summary carries no per-document detail; the persisted record carries all
// of it for admin review.
func (p *Processor) ProcessApplication(ctx context.Context, userID string, files []entity.UploadedDocument) (Summary, error) {
	start := time.Now()
	appID := uuid.New()
	p.logger.Info("pipeline.start",
		"request_id", common.RequestIDFromContext(ctx),
		"application_id", appID, "user_id", userID, "files", len(files))

	// Per-document extraction and validation are independent; fan out with a
	// bounded limit, each worker writing its own index slot so result i
	// always corresponds to input file i, regardless of completion order.
	extracted := make([]entity.ExtractedDocument, len(files))
	validated := make([]entity.ValidationResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxParallel)
	for i := range files {
		g.Go(func() error {
			extracted[i] = p.extractDocument(gctx, appID, files[i])
			validated[i] = p.validateDocument(gctx, appID, extracted[i])
			return nil
		})
	}
	// workers fold their own failures into negative results
	_ = g.Wait()

	// Estimation runs strictly after all validations have joined: its input
	// is the aggregate valid set.
	var validTexts []string
	for _, v := range validated {
		if v.IsValid {
			validTexts = append(validTexts, v.SourceText)
		}
	}
	estimate := p.estimate(ctx, appID, validTexts)

	app := assembleApplication(appID, userID, extracted, validated, estimate)
	if err := p.apps.Create(ctx, app); err != nil {
		p.logger.Error("pipeline.store_failed", "application_id", appID, "user_id", userID, "error", err)
		return Summary{ApplicationID: appID, Succeeded: false, Message: failureMessage}, err
	}

	succeeded := len(validTexts) > 0
	msg := successMessage
	if !succeeded {
		msg = failureMessage
	}
	p.logger.Info("pipeline.done",
		"application_id", appID, "user_id", userID,
		"files", len(files), "valid", len(validTexts),
		"proposed_score", estimate.ProposedScore, "proposed_limit", estimate.ProposedLimit,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Summary{ApplicationID: appID, Succeeded: succeeded, Message: msg}, nil
}

func (p *Processor) estimate(ctx context.Context, appID uuid.UUID, validTexts []string) llm.Estimate {
	if len(validTexts) == 0 {
		// sentinel without an LLM call
		p.logger.Info("pipeline.estimate.skipped", "application_id", appID, "reason", "no valid documents")
		return llm.Estimate{}
	}
	return p.estimator.EstimateCredit(ctx, validTexts)
}

// assembleApplication folds the ordered stage outputs into the persisted
// record. len(Documents) always equals len(input files).
func assembleApplication(
	appID uuid.UUID,
	userID string,
	extracted []entity.ExtractedDocument,
	validated []entity.ValidationResult,
	estimate llm.Estimate,
) *entity.Application {
	docs := make([]entity.DocumentResult, len(extracted))
	for i := range extracted {
		docs[i] = entity.DocumentResult{
			Filename:      extracted[i].Filename,
			ExtractedText: extracted[i].Text,
			Data:          extracted[i].EncodedData,
			IsValid:       validated[i].IsValid,
			Reason:        validated[i].Reason,
		}
	}
	return &entity.Application{
		ID:            appID,
		UserID:        userID,
		Documents:     docs,
		ProposedScore: estimate.ProposedScore,
		ProposedLimit: estimate.ProposedLimit,
		IsApproved:    nil, // set out-of-band by an admin reviewer
		SubmittedAt:   time.Now().UTC(),
	}
}
