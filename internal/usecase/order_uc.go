package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

// OrderUseCase serves the client-side polling endpoints on the thank-you page.
type OrderUseCase interface {
	Status(ctx context.Context, orderID string) (*model.Order, error)
	// AccessToken returns the order's token only once the order is paid.
	AccessToken(ctx context.Context, orderID string) (string, error)
}

type orderUC struct {
	orders repository.OrderRepository
	log    *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, logger *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, log: logger}
}

func (u *orderUC) Status(ctx context.Context, orderID string) (*model.Order, error) {
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) AccessToken(ctx context.Context, orderID string) (string, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return "", err
	}
	if !order.IsPaid() {
		return "", domain.ErrOrderNotPaid
	}
	return order.AccessToken, nil
}
