package payment

import (
	"context"
	"fmt"
	"strings"

	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway simulates the provider in mock mode: "paying" is following a
// redirect to the local settlement endpoint, which marks the order paid.
type NoopGateway struct {
	siteURL string
}

func NewNoopGateway(siteURL string) *NoopGateway {
	return &NoopGateway{siteURL: strings.TrimSuffix(siteURL, "/")}
}

func (g *NoopGateway) Name() string { return "mock" }

func (g *NoopGateway) RequestPayment(_ context.Context, order *model.Order, _ string) (string, string, error) {
	return "", fmt.Sprintf("%s/mock/pay?order=%s", g.siteURL, order.ID), nil
}

func (g *NoopGateway) VerifyNotification(adapter.Notification) error { return nil }
