package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"telegram-course-access/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order is a purchase record for one product. The access token is generated
// exactly once, at creation, and never regenerated.
type Order struct {
	ID          string
	ProductID   string
	Amount      int64
	Currency    string
	Status      OrderStatus
	AccessToken string
	Invoice     string // gateway invoice number, assigned at creation

	ProviderPaymentID *string
	PaidAt            *time.Time

	// Binding fields transition from nil to a fixed value exactly once.
	TelegramUserID   *int64
	TelegramUsername *string
	AccessUsedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder creates a pending order with a freshly issued access token.
func NewOrder(productID string, amount int64, currency, invoice string) (*Order, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	token, err := NewAccessToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Order{
		ID:          uuid.NewString(),
		ProductID:   productID,
		Amount:      amount,
		Currency:    currency,
		Status:      OrderStatusPending,
		AccessToken: token,
		Invoice:     invoice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// BoundTo reports whether the order's access token is already bound to tgID.
func (o *Order) BoundTo(tgID int64) bool {
	return o.TelegramUserID != nil && *o.TelegramUserID == tgID
}

func (o *Order) IsPaid() bool { return o.Status == OrderStatusPaid }
