package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.TelegramUserRepository = (*telegramUserRepo)(nil)

type telegramUserRepo struct {
	pool *pgxpool.Pool
}

func NewTelegramUserRepo(pool *pgxpool.Pool) repository.TelegramUserRepository {
	return &telegramUserRepo{pool: pool}
}

func (r *telegramUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.TelegramUser, error) {
	const q = `
SELECT telegram_user_id, username, state, blocked_until, last_seen_at
  FROM telegram_users WHERE telegram_user_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, tgID)
	if err != nil {
		return nil, err
	}
	var u model.TelegramUser
	if err := row.Scan(&u.TelegramID, &u.Username, &u.State, &u.BlockedUntil, &u.LastSeenAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}

func (r *telegramUserRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.TelegramUser) error {
	const q = `
INSERT INTO telegram_users (telegram_user_id, username, state, blocked_until, last_seen_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (telegram_user_id) DO UPDATE SET
  username = COALESCE(EXCLUDED.username, telegram_users.username),
  state = EXCLUDED.state,
  blocked_until = EXCLUDED.blocked_until,
  last_seen_at = EXCLUDED.last_seen_at;
`
	_, err := execSQL(ctx, r.pool, tx, q, u.TelegramID, u.Username, u.State, u.BlockedUntil, u.LastSeenAt)
	return err
}
