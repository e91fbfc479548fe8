package repository

import (
	"context"
	"time"

	"telegram-course-access/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindByAccessToken(ctx context.Context, tx Tx, token string) (*model.Order, error)

	// SetProviderPaymentID records the gateway's payment id after registration.
	SetProviderPaymentID(ctx context.Context, tx Tx, orderID, paymentID string) error

	// MarkPaid transitions pending -> paid. The update is conditional on the
	// current status so replayed notifications are no-ops; returns whether a
	// row was actually transitioned.
	MarkPaid(ctx context.Context, tx Tx, orderID, providerPaymentID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, tx Tx, orderID string) error

	// BindTelegramUser sets the bound-user fields iff they are still unset.
	// Returns false when the conditional update matched zero rows, meaning a
	// concurrent claim won; callers must re-read to decide the outcome.
	BindTelegramUser(ctx context.Context, tx Tx, orderID string, tgID int64, username *string, usedAt time.Time) (bool, error)

	// ExpirePending fails pending orders created before the cutoff.
	ExpirePending(ctx context.Context, tx Tx, createdBefore time.Time) (int64, error)
}
