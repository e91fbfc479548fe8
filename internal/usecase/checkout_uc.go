package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
	"telegram-course-access/internal/domain/ports/repository"
	"telegram-course-access/internal/infra/logging"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase creates pending orders and hands the customer to the
// payment provider.
type CheckoutUseCase interface {
	// Create validates the product, creates a pending order with a fresh
	// access token, registers the payment and returns the redirect URL.
	Create(ctx context.Context, productID string) (*model.Order, string, error)
}

type checkoutUC struct {
	orders   repository.OrderRepository
	gateway  adapter.PaymentGateway
	products map[string]config.ProductConfig
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	orders repository.OrderRepository,
	gateway adapter.PaymentGateway,
	products map[string]config.ProductConfig,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{orders: orders, gateway: gateway, products: products, log: logger}
}

func (u *checkoutUC) Create(ctx context.Context, productID string) (*model.Order, string, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Create")()

	product, ok := u.products[productID]
	if !ok {
		return nil, "", domain.ErrUnknownProduct
	}

	// Small numeric invoice, assigned once and reused for the whole order.
	invoice := fmt.Sprintf("%d", time.Now().Unix())

	order, err := model.NewOrder(productID, product.Amount, product.Currency, invoice)
	if err != nil {
		return nil, "", err
	}
	if err := u.orders.Create(ctx, repository.NoTX, order); err != nil {
		return nil, "", fmt.Errorf("create order: %w", err)
	}

	paymentID, payURL, err := u.gateway.RequestPayment(ctx, order, product.Name)
	if err != nil {
		u.log.Error().Err(err).Str("order_id", order.ID).Msg("payment registration failed")
		return nil, "", fmt.Errorf("request payment: %w", err)
	}
	if paymentID != "" {
		if err := u.orders.SetProviderPaymentID(ctx, repository.NoTX, order.ID, paymentID); err != nil {
			// Payment was created; record the miss and carry on.
			u.log.Error().Err(err).Str("order_id", order.ID).Msg("store provider payment id failed")
		}
	}

	u.log.Info().
		Str("order_id", order.ID).
		Str("product_id", productID).
		Str("provider", u.gateway.Name()).
		Msg("checkout created")
	return order, payURL, nil
}
