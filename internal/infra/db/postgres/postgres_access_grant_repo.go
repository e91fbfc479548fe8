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
var _ repository.AccessGrantRepository = (*accessGrantRepo)(nil)

type accessGrantRepo struct {
	pool *pgxpool.Pool
}

func NewAccessGrantRepo(pool *pgxpool.Pool) repository.AccessGrantRepository {
	return &accessGrantRepo{pool: pool}
}

// Upsert replaces the prior grant for the (user, product) pair and clears any
// revocation, which is exactly the re-grant semantics verification needs.
func (r *accessGrantRepo) Upsert(ctx context.Context, tx repository.Tx, g *model.AccessGrant) error {
	const q = `
INSERT INTO telegram_access (telegram_user_id, product_id, access_granted_at, revoked_at, source_token_hash)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (telegram_user_id, product_id) DO UPDATE SET
  access_granted_at = EXCLUDED.access_granted_at,
  revoked_at = EXCLUDED.revoked_at,
  source_token_hash = EXCLUDED.source_token_hash;
`
	_, err := execSQL(ctx, r.pool, tx, q, g.TelegramUserID, g.ProductID, g.GrantedAt, g.RevokedAt, g.SourceTokenHash)
	return err
}

func (r *accessGrantRepo) FindByUserAndProduct(ctx context.Context, tx repository.Tx, tgID int64, productID string) (*model.AccessGrant, error) {
	const q = `
SELECT telegram_user_id, product_id, access_granted_at, revoked_at, source_token_hash
  FROM telegram_access WHERE telegram_user_id = $1 AND product_id = $2;
`
	row, err := pickRow(ctx, r.pool, tx, q, tgID, productID)
	if err != nil {
		return nil, err
	}
	var g model.AccessGrant
	if err := row.Scan(&g.TelegramUserID, &g.ProductID, &g.GrantedAt, &g.RevokedAt, &g.SourceTokenHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &g, nil
}
