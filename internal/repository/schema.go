package repository

import (
	"context"
	"log/slog"
)

const applicationsDDL = `
CREATE TABLE IF NOT EXISTS credit_applications (
	id             UUID PRIMARY KEY,
	user_id        TEXT NOT NULL,
	documents      JSONB NOT NULL,
	proposed_score INTEGER NOT NULL,
	proposed_limit INTEGER NOT NULL,
	is_approved    BOOLEAN,
	submitted_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_credit_applications_user
	ON credit_applications (user_id, submitted_at);
CREATE INDEX IF NOT EXISTS idx_credit_applications_review
	ON credit_applications (is_approved, submitted_at);
`

// EnsureSchema applies the store DDL. Idempotent, run at startup.
func EnsureSchema(ctx context.Context, db DB, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, applicationsDDL); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		return err
	}
	logger.Info("database schema ensured")
	return nil
}
