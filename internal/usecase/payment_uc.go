package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
	"telegram-course-access/internal/domain/ports/repository"
	"telegram-course-access/internal/infra/logging"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase settles orders from provider notifications.
type PaymentUseCase interface {
	// HandleNotification verifies the callback signature and transitions the
	// order pending -> paid, returning the settled order when this call made
	// the transition. Replayed notifications are no-ops. A signature mismatch
	// is rejected without touching any order.
	HandleNotification(ctx context.Context, n adapter.Notification) (*model.Order, bool, error)

	// SettleMock marks the order paid directly; used only by the mock
	// gateway's settlement redirect.
	SettleMock(ctx context.Context, orderID string) (*model.Order, bool, error)
}

type paymentUC struct {
	orders  repository.OrderRepository
	gateway adapter.PaymentGateway
	log     *zerolog.Logger
}

func NewPaymentUseCase(orders repository.OrderRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{orders: orders, gateway: gateway, log: logger}
}

func (u *paymentUC) HandleNotification(ctx context.Context, n adapter.Notification) (*model.Order, bool, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.HandleNotification")()

	if err := u.gateway.VerifyNotification(n); err != nil {
		u.log.Warn().
			Str("order_id", n.OrderID).
			Str("event_id", n.EventID).
			Msg("notification rejected: bad signature")
		return nil, false, err
	}

	if !n.Settled() {
		u.log.Info().
			Str("order_id", n.OrderID).
			Str("status", n.Status).
			Msg("notification ignored: not a settlement")
		return nil, false, nil
	}

	order, err := u.orders.FindByID(ctx, repository.NoTX, n.OrderID)
	if err != nil {
		return nil, false, fmt.Errorf("find order %s: %w", n.OrderID, err)
	}

	transitioned, err := u.orders.MarkPaid(ctx, repository.NoTX, order.ID, n.PaymentID, time.Now())
	if err != nil {
		return nil, false, fmt.Errorf("mark paid %s: %w", order.ID, err)
	}
	if !transitioned {
		// Already settled; the provider retried.
		u.log.Info().Str("order_id", order.ID).Msg("notification replay, order already paid")
		return order, false, nil
	}

	u.log.Info().
		Str("order_id", order.ID).
		Str("payment_id", n.PaymentID).
		Int64("amount", order.Amount).
		Str("currency", order.Currency).
		Msg("order paid")
	return order, true, nil
}

func (u *paymentUC) SettleMock(ctx context.Context, orderID string) (*model.Order, bool, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, false, err
	}
	if order.IsPaid() {
		return order, false, nil
	}
	paymentID := fmt.Sprintf("mock_%d", time.Now().UnixMilli())
	transitioned, err := u.orders.MarkPaid(ctx, repository.NoTX, order.ID, paymentID, time.Now())
	if err != nil {
		return nil, false, err
	}
	order, err = u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, transitioned, nil
}
