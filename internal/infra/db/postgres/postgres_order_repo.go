package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepo{pool: pool}
}

const orderColumns = `
id, product_id, amount, currency, status, access_token, invoice,
provider_payment_id, paid_at, telegram_user_id, telegram_username,
access_used_at, created_at, updated_at`

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, product_id, amount, currency, status, access_token, invoice, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.ProductID, o.Amount, o.Currency, o.Status, o.AccessToken, o.Invoice, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1;`
	return r.findOne(ctx, tx, q, id)
}

func (r *orderRepo) FindByAccessToken(ctx context.Context, tx repository.Tx, token string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE access_token = $1;`
	return r.findOne(ctx, tx, q, token)
}

func (r *orderRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.Order, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var o model.Order
	err = row.Scan(
		&o.ID, &o.ProductID, &o.Amount, &o.Currency, &o.Status, &o.AccessToken, &o.Invoice,
		&o.ProviderPaymentID, &o.PaidAt, &o.TelegramUserID, &o.TelegramUsername,
		&o.AccessUsedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &o, nil
}

func (r *orderRepo) SetProviderPaymentID(ctx context.Context, tx repository.Tx, orderID, paymentID string) error {
	const q = `UPDATE orders SET provider_payment_id = $2, updated_at = now() WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, orderID, paymentID)
	return err
}

// MarkPaid is conditional on the pending status so that replayed provider
// notifications cannot re-settle or overwrite an order.
func (r *orderRepo) MarkPaid(ctx context.Context, tx repository.Tx, orderID, providerPaymentID string, paidAt time.Time) (bool, error) {
	const q = `
UPDATE orders
   SET status = 'paid', provider_payment_id = $2, paid_at = $3, updated_at = now()
 WHERE id = $1 AND status = 'pending';
`
	tag, err := execSQL(ctx, r.pool, tx, q, orderID, providerPaymentID, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) MarkFailed(ctx context.Context, tx repository.Tx, orderID string) error {
	const q = `UPDATE orders SET status = 'failed', updated_at = now() WHERE id = $1 AND status = 'pending';`
	_, err := execSQL(ctx, r.pool, tx, q, orderID)
	return err
}

// BindTelegramUser performs the first-claim-wins compare-and-swap: the update
// only matches while the binding fields are still NULL. Zero rows affected
// means another claim already won; the caller re-reads to decide the outcome.
func (r *orderRepo) BindTelegramUser(ctx context.Context, tx repository.Tx, orderID string, tgID int64, username *string, usedAt time.Time) (bool, error) {
	const q = `
UPDATE orders
   SET telegram_user_id = $2,
       telegram_username = COALESCE($3, telegram_username),
       access_used_at = $4,
       updated_at = now()
 WHERE id = $1 AND telegram_user_id IS NULL;
`
	tag, err := execSQL(ctx, r.pool, tx, q, orderID, tgID, username, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) ExpirePending(ctx context.Context, tx repository.Tx, createdBefore time.Time) (int64, error) {
	const q = `UPDATE orders SET status = 'failed', updated_at = now() WHERE status = 'pending' AND created_at < $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, createdBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
