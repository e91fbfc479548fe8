package repository

import (
	"context"
	"time"

	"telegram-course-access/internal/domain/model"
)

// -----------------------------
// Token attempts (append-only audit log)
// -----------------------------

type TokenAttemptRepository interface {
	Insert(ctx context.Context, tx Tx, a *model.TokenAttempt) error
	// CountSince counts attempts (success or failure) by one user inside the
	// sliding rate-limit window.
	CountSince(ctx context.Context, tx Tx, tgID int64, since time.Time) (int, error)
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.TokenAttempt, error)
}
