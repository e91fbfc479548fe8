package adapter

import (
	"context"

	"telegram-course-access/internal/domain/model"
)

// Notification is the provider-agnostic shape of a settlement callback.
type Notification struct {
	EventID   string
	OrderID   string
	PaymentID string
	Amount    int64
	Status    string
	Signature string
}

// Settled reports whether the notification confirms a completed payment.
func (n Notification) Settled() bool {
	switch n.Status {
	case "Settled", "settled", "paid", "success":
		return true
	}
	return false
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string

	// RequestPayment registers a payment for the order with the provider and
	// returns the provider payment id plus a redirect URL for the customer.
	RequestPayment(ctx context.Context, order *model.Order, description string) (paymentID string, payURL string, err error)

	// VerifyNotification checks the callback's keyed-hash signature. A
	// mismatch must be rejected without mutating any order.
	VerifyNotification(n Notification) error
}
