package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"credit-backend/constants"
	"credit-backend/internal/common"
	"credit-backend/internal/entity"
)

// DB is the slice of pgxpool the store needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ApplicationRepository is the application store: one finished record per
// processed batch, immutable except for the reviewer-set approval flag.
type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	ListAll(ctx context.Context) ([]*entity.Application, error)
	ListByStatus(ctx context.Context, status constants.ReviewStatus) ([]*entity.Application, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Application, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) error
}

type applicationRepo struct {
	db     DB
	logger *slog.Logger
}

func NewApplicationRepository(db DB, logger *slog.Logger) ApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &applicationRepo{db: db, logger: logger}
}

const applicationColumns = `id, user_id, documents, proposed_score, proposed_limit, is_approved, submitted_at`

func (r *applicationRepo) Create(ctx context.Context, app *entity.Application) error {
	docs, err := json.Marshal(app.Documents)
	if err != nil {
		return fmt.Errorf("%w: encode documents: %v", common.ErrPersistence, err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO credit_applications (`+applicationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		app.ID, app.UserID, docs, app.ProposedScore, app.ProposedLimit, app.IsApproved, app.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("failed to create application", "application_id", app.ID, "user_id", app.UserID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM credit_applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get application", "application_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return app, nil
}

func (r *applicationRepo) ListAll(ctx context.Context) ([]*entity.Application, error) {
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM credit_applications ORDER BY submitted_at DESC`)
}

func (r *applicationRepo) ListByStatus(ctx context.Context, status constants.ReviewStatus) ([]*entity.Application, error) {
	switch status {
	case constants.ReviewStatusPending:
		return r.list(ctx,
			`SELECT `+applicationColumns+` FROM credit_applications WHERE is_approved IS NULL ORDER BY submitted_at DESC`)
	case constants.ReviewStatusCompleted:
		return r.list(ctx,
			`SELECT `+applicationColumns+` FROM credit_applications WHERE is_approved IS NOT NULL ORDER BY submitted_at DESC`)
	default:
		return nil, fmt.Errorf("%w: unknown review status %q", common.ErrInvalidInput, status)
	}
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Application, error) {
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM credit_applications WHERE user_id = $1 ORDER BY submitted_at DESC`, userID)
}

func (r *applicationRepo) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE credit_applications SET is_approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		r.logger.Error("failed to set approval", "application_id", id, "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *applicationRepo) list(ctx context.Context, sql string, args ...any) ([]*entity.Application, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("failed to list applications", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()

	var out []*entity.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return out, nil
}

func scanApplication(row pgx.Row) (*entity.Application, error) {
	var (
		app  entity.Application
		docs []byte
	)
	if err := row.Scan(&app.ID, &app.UserID, &docs, &app.ProposedScore, &app.ProposedLimit,
		&app.IsApproved, &app.SubmittedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docs, &app.Documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return &app, nil
}
