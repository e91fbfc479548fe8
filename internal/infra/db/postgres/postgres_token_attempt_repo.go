package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.TokenAttemptRepository = (*tokenAttemptRepo)(nil)

type tokenAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewTokenAttemptRepo(pool *pgxpool.Pool) repository.TokenAttemptRepository {
	return &tokenAttemptRepo{pool: pool}
}

// Insert appends one audit row. The table is never updated or deleted from
// by this service.
func (r *tokenAttemptRepo) Insert(ctx context.Context, tx repository.Tx, a *model.TokenAttempt) error {
	const q = `
INSERT INTO telegram_token_attempts (id, telegram_user_id, success, reason, attempted_at)
VALUES ($1,$2,$3,$4,$5);
`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.TelegramUserID, a.Success, a.Reason, a.AttemptedAt)
	return err
}

func (r *tokenAttemptRepo) CountSince(ctx context.Context, tx repository.Tx, tgID int64, since time.Time) (int, error) {
	const q = `
SELECT count(*) FROM telegram_token_attempts
 WHERE telegram_user_id = $1 AND attempted_at >= $2;
`
	row, err := pickRow(ctx, r.pool, tx, q, tgID, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *tokenAttemptRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.TokenAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, telegram_user_id, success, reason, attempted_at
  FROM telegram_token_attempts ORDER BY attempted_at DESC LIMIT $1;
`
	rows, err := pickRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TokenAttempt
	for rows.Next() {
		var a model.TokenAttempt
		if err := rows.Scan(&a.ID, &a.TelegramUserID, &a.Success, &a.Reason, &a.AttemptedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
