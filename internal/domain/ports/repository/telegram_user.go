package repository

import (
	"context"

	"telegram-course-access/internal/domain/model"
)

// -----------------------------
// Telegram users
// -----------------------------

type TelegramUserRepository interface {
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.TelegramUser, error)
	// Upsert creates or refreshes the row keyed by telegram id.
	Upsert(ctx context.Context, tx Tx, u *model.TelegramUser) error
}
