package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-backend/constants"
	"credit-backend/internal/common"
	"credit-backend/internal/entity"
)

func sampleApplication(t *testing.T) *entity.Application {
	t.Helper()
	text := "BANK STATEMENT 2025-06-01 balance 1204.55"
	return &entity.Application{
		ID:     uuid.New(),
		UserID: "user-42",
		Documents: []entity.DocumentResult{
			{Filename: "stmt.png", ExtractedText: &text, Data: "aGVsbG8=", IsValid: true, Reason: "ok"},
			{Filename: "broken.pdf", ExtractedText: nil, Data: "d29ybGQ=", IsValid: false, Reason: constants.NoTextReason},
		},
		ProposedScore: 710,
		ProposedLimit: 2500,
		SubmittedAt:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestApplicationRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	app := sampleApplication(t)
	docs, err := json.Marshal(app.Documents)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO credit_applications").
		WithArgs(app.ID, app.UserID, docs, app.ProposedScore, app.ProposedLimit, app.IsApproved, app.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewApplicationRepository(mock, nil)
	require.NoError(t, repo.Create(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	app := sampleApplication(t)
	docs, err := json.Marshal(app.Documents)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"id", "user_id", "documents", "proposed_score", "proposed_limit", "is_approved", "submitted_at"}).
		AddRow(app.ID, app.UserID, docs, app.ProposedScore, app.ProposedLimit, app.IsApproved, app.SubmittedAt)
	mock.ExpectQuery("SELECT .* FROM credit_applications WHERE id").
		WithArgs(app.ID).
		WillReturnRows(rows)

	repo := NewApplicationRepository(mock, nil)
	got, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.UserID, got.UserID)
	require.Len(t, got.Documents, 2)
	assert.Equal(t, "stmt.png", got.Documents[0].Filename)
	assert.True(t, got.Documents[0].IsValid)
	assert.Nil(t, got.Documents[1].ExtractedText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT .* FROM credit_applications WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "documents", "proposed_score", "proposed_limit", "is_approved", "submitted_at"}))

	repo := NewApplicationRepository(mock, nil)
	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestApplicationRepo_ListByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	app := sampleApplication(t)
	docs, err := json.Marshal(app.Documents)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .* FROM credit_applications WHERE is_approved IS NULL").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "documents", "proposed_score", "proposed_limit", "is_approved", "submitted_at"}).
			AddRow(app.ID, app.UserID, docs, app.ProposedScore, app.ProposedLimit, app.IsApproved, app.SubmittedAt))

	repo := NewApplicationRepository(mock, nil)
	apps, err := repo.ListByStatus(context.Background(), constants.ReviewStatusPending)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Nil(t, apps[0].IsApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_ListByStatus_Unknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewApplicationRepository(mock, nil)
	_, err = repo.ListByStatus(context.Background(), constants.ReviewStatus("bogus"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestApplicationRepo_SetApproval(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE credit_applications SET is_approved").
		WithArgs(id, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewApplicationRepository(mock, nil)
	require.NoError(t, repo.SetApproval(context.Background(), id, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_SetApproval_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE credit_applications SET is_approved").
		WithArgs(id, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewApplicationRepository(mock, nil)
	err = repo.SetApproval(context.Background(), id, false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
