package repository

import (
	"context"

	"telegram-course-access/internal/domain/model"
)

// -----------------------------
// Access grants
// -----------------------------

type AccessGrantRepository interface {
	// Upsert replaces any prior grant for the (user, product) pair.
	Upsert(ctx context.Context, tx Tx, g *model.AccessGrant) error
	FindByUserAndProduct(ctx context.Context, tx Tx, tgID int64, productID string) (*model.AccessGrant, error)
}
