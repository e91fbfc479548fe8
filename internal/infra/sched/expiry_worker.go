package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain/ports/repository"
	"telegram-course-access/internal/infra/metrics"
)

// ExpiryWorker periodically fails pending orders that outlived the checkout
// TTL so abandoned carts do not stay claimable forever.
type ExpiryWorker struct {
	interval time.Duration
	ttl      time.Duration
	orders   repository.OrderRepository
	log      *zerolog.Logger
}

func NewExpiryWorker(interval, ttl time.Duration, orders repository.OrderRepository, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExpiryWorker{
		interval: interval,
		ttl:      ttl,
		orders:   orders,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.ttl)
			n, err := w.orders.ExpirePending(ctx, repository.NoTX, cutoff)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				metrics.AddOrdersExpired(n)
				w.log.Info().Int64("count", n).Msg("stale pending orders failed")
			}
		}
	}
}
