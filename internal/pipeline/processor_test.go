package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-backend/constants"
	"credit-backend/internal/common"
	"credit-backend/internal/entity"
	"credit-backend/internal/extract"
	"credit-backend/internal/llm"
)

// fakeExtractor resolves by filename: a mapped error fails extraction,
// otherwise the mapped text is returned.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, filename, _ string, _ []byte) (extract.Result, error) {
	if err, ok := f.errs[filename]; ok {
		return extract.Result{}, err
	}
	return extract.Result{Text: f.texts[filename], Pages: 1, Method: "image-ocr"}, nil
}

// fakeValidator maps source text to a verdict and counts calls.
type fakeValidator struct {
	mu       sync.Mutex
	verdicts map[string]llm.ValidationOutcome
	calls    []string
}

func (f *fakeValidator) ValidateDocument(_ context.Context, text string) llm.ValidationOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if v, ok := f.verdicts[text]; ok {
		return v
	}
	return llm.ValidationOutcome{IsValid: false, Reason: "unexpected text"}
}

type fakeEstimator struct {
	estimate llm.Estimate
	calls    [][]string
}

func (f *fakeEstimator) EstimateCredit(_ context.Context, texts []string) llm.Estimate {
	f.calls = append(f.calls, texts)
	return f.estimate
}

// fakeAppRepo captures the persisted application.
type fakeAppRepo struct {
	created *entity.Application
	err     error
}

func (f *fakeAppRepo) Create(_ context.Context, app *entity.Application) error {
	if f.err != nil {
		return f.err
	}
	f.created = app
	return nil
}

func (f *fakeAppRepo) GetByID(context.Context, uuid.UUID) (*entity.Application, error) {
	return nil, common.ErrNotFound
}
func (f *fakeAppRepo) ListAll(context.Context) ([]*entity.Application, error) { return nil, nil }
func (f *fakeAppRepo) ListByStatus(context.Context, constants.ReviewStatus) ([]*entity.Application, error) {
	return nil, nil
}
func (f *fakeAppRepo) ListByUser(context.Context, string) ([]*entity.Application, error) {
	return nil, nil
}
func (f *fakeAppRepo) SetApproval(context.Context, uuid.UUID, bool) error { return nil }

func upload(name, contentType string) entity.UploadedDocument {
	return entity.UploadedDocument{Filename: name, ContentType: contentType, Data: []byte("bytes of " + name)}
}

func TestProcessApplication_MixedBatch(t *testing.T) {
	// one valid PNG bank statement, one corrupt PDF, one unsupported .gif
	ext := &fakeExtractor{
		texts: map[string]string{"statement.png": "BANK STATEMENT 2025-06-01 balance 1204.55"},
		errs: map[string]error{
			"corrupt.pdf":   fmt.Errorf("%w: xref not found", common.ErrPDFParse),
			"animation.gif": fmt.Errorf("%w: %q", common.ErrUnsupportedType, "image/gif"),
		},
	}
	val := &fakeValidator{verdicts: map[string]llm.ValidationOutcome{
		"BANK STATEMENT 2025-06-01 balance 1204.55": {IsValid: true, Reason: "ok"},
	}}
	est := &fakeEstimator{estimate: llm.Estimate{ProposedScore: 700, ProposedLimit: 2000}}
	repo := &fakeAppRepo{}

	p := NewProcessor(nil, ext, val, est, repo, 2)
	sum, err := p.ProcessApplication(context.Background(),
		"user-42",
		[]entity.UploadedDocument{
			upload("statement.png", "image/png"),
			upload("corrupt.pdf", "application/pdf"),
			upload("animation.gif", "image/gif"),
		})
	require.NoError(t, err)

	assert.True(t, sum.Succeeded)
	assert.NotContains(t, sum.Message, "statement.png")
	assert.NotContains(t, sum.Message, "corrupt")

	// the validator saw only the one extracted document
	assert.Equal(t, []string{"BANK STATEMENT 2025-06-01 balance 1204.55"}, val.calls)
	// the estimator was invoked once with exactly one text entry
	require.Len(t, est.calls, 1)
	assert.Equal(t, []string{"BANK STATEMENT 2025-06-01 balance 1204.55"}, est.calls[0])

	app := repo.created
	require.NotNil(t, app)
	require.Len(t, app.Documents, 3)
	assert.Equal(t, "statement.png", app.Documents[0].Filename)
	assert.Equal(t, "corrupt.pdf", app.Documents[1].Filename)
	assert.Equal(t, "animation.gif", app.Documents[2].Filename)
	assert.Equal(t, 1, app.ValidCount())
	assert.True(t, app.Documents[0].IsValid)
	assert.Nil(t, app.Documents[1].ExtractedText)
	assert.Equal(t, constants.NoTextReason, app.Documents[1].Reason)
	assert.Equal(t, constants.NoTextReason, app.Documents[2].Reason)
	assert.Equal(t, 700, app.ProposedScore)
	assert.Equal(t, 2000, app.ProposedLimit)
	assert.Nil(t, app.IsApproved)
	assert.False(t, app.SubmittedAt.IsZero())
}

func TestProcessApplication_OrderPreservedUnderConcurrency(t *testing.T) {
	const n = 25
	ext := &fakeExtractor{texts: map[string]string{}}
	val := &fakeValidator{verdicts: map[string]llm.ValidationOutcome{}}
	files := make([]entity.UploadedDocument, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("doc-%02d.png", i)
		text := fmt.Sprintf("text of %s", name)
		ext.texts[name] = text
		val.verdicts[text] = llm.ValidationOutcome{IsValid: i%2 == 0, Reason: "r"}
		files[i] = upload(name, "image/png")
	}
	est := &fakeEstimator{estimate: llm.Estimate{ProposedScore: 650, ProposedLimit: 1000}}
	repo := &fakeAppRepo{}

	p := NewProcessor(nil, ext, val, est, repo, 8)
	_, err := p.ProcessApplication(context.Background(), "user-42", files)
	require.NoError(t, err)

	require.Len(t, repo.created.Documents, n)
	for i, d := range repo.created.Documents {
		assert.Equal(t, fmt.Sprintf("doc-%02d.png", i), d.Filename, "result %d must match input %d", i, i)
	}
	// estimator input preserves document order too
	require.Len(t, est.calls, 1)
	want := make([]string, 0, n/2+1)
	for i := 0; i < n; i += 2 {
		want = append(want, fmt.Sprintf("text of doc-%02d.png", i))
	}
	assert.Equal(t, want, est.calls[0])
}

func TestProcessApplication_NoValidDocuments(t *testing.T) {
	ext := &fakeExtractor{errs: map[string]error{
		"a.pdf": fmt.Errorf("%w: bad xref", common.ErrPDFParse),
		"b.gif": fmt.Errorf("%w: %q", common.ErrUnsupportedType, "image/gif"),
	}}
	val := &fakeValidator{}
	est := &fakeEstimator{estimate: llm.Estimate{ProposedScore: 999, ProposedLimit: 999}}
	repo := &fakeAppRepo{}

	p := NewProcessor(nil, ext, val, est, repo, 2)
	sum, err := p.ProcessApplication(context.Background(), "user-42",
		[]entity.UploadedDocument{upload("a.pdf", "application/pdf"), upload("b.gif", "image/gif")})
	require.NoError(t, err)

	assert.False(t, sum.Succeeded)
	assert.Empty(t, val.calls, "extraction-failed documents never reach the validator")
	assert.Empty(t, est.calls, "estimator must not be invoked with an empty valid set")
	assert.Equal(t, 0, repo.created.ProposedScore)
	assert.Equal(t, 0, repo.created.ProposedLimit)
}

func TestProcessApplication_MalformedValidatorReply(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"stmt.png": "extracted text"}}
	val := &fakeValidator{verdicts: map[string]llm.ValidationOutcome{
		"extracted text": {IsValid: false, Reason: "could not parse validation response: json does not match schema"},
	}}
	est := &fakeEstimator{}
	repo := &fakeAppRepo{}

	p := NewProcessor(nil, ext, val, est, repo, 1)
	sum, err := p.ProcessApplication(context.Background(), "user-42",
		[]entity.UploadedDocument{upload("stmt.png", "image/png")})
	require.NoError(t, err)

	assert.False(t, sum.Succeeded)
	require.Len(t, repo.created.Documents, 1)
	assert.False(t, repo.created.Documents[0].IsValid)
	assert.Contains(t, repo.created.Documents[0].Reason, "parse")
	assert.Empty(t, est.calls)
}

func TestProcessApplication_StoreFailureIsBatchFatal(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"stmt.png": "text"}}
	val := &fakeValidator{verdicts: map[string]llm.ValidationOutcome{
		"text": {IsValid: true, Reason: "ok"},
	}}
	est := &fakeEstimator{estimate: llm.Estimate{ProposedScore: 700, ProposedLimit: 1500}}
	repo := &fakeAppRepo{err: errors.New("connection reset")}

	p := NewProcessor(nil, ext, val, est, repo, 1)
	sum, err := p.ProcessApplication(context.Background(), "user-42",
		[]entity.UploadedDocument{upload("stmt.png", "image/png")})
	require.Error(t, err)
	assert.False(t, sum.Succeeded)
	assert.NotContains(t, sum.Message, "connection reset")
}

func TestProcessApplication_EmptyTextIsInvalidWithoutValidatorCall(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"blank.png": ""}}
	val := &fakeValidator{}
	est := &fakeEstimator{}
	repo := &fakeAppRepo{}

	p := NewProcessor(nil, ext, val, est, repo, 1)
	sum, err := p.ProcessApplication(context.Background(), "user-42",
		[]entity.UploadedDocument{upload("blank.png", "image/png")})
	require.NoError(t, err)

	assert.False(t, sum.Succeeded)
	assert.Empty(t, val.calls)
	assert.Equal(t, constants.NoTextReason, repo.created.Documents[0].Reason)
}
