package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain/ports/adapter"
)

// Bot is the full bot surface the application wires at startup: the outbound
// send port plus the update lifecycle.
type Bot interface {
	adapter.TelegramBotAdapter
	StartPolling(ctx context.Context) error
	StopPolling()
	HandleWebhookUpdate(ctx context.Context, up tgbotapi.Update)
	RegisterWebhook(webhookURL string) error
}

var _ Bot = (*NoopBotAdapter)(nil)
var _ Bot = (*RealTelegramBotAdapter)(nil)

// NoopBotAdapter stands in for the real bot when no token is configured
// (developer mode). It logs outbound messages instead of calling Telegram.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

// SendMessage logs the message and simulates a small delivery delay.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Int64("tg_id", tgID).Str("text", text).Msg("noop bot send")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Int64("tg_id", tgID).Str("text", text).Interface("rows", rows).Msg("noop bot send buttons")
	return nil
}

// StartPolling blocks until the context is cancelled; there is no update
// source to poll.
func (b *NoopBotAdapter) StartPolling(ctx context.Context) error {
	b.log.Warn().Msg("telegram disabled, running without a bot")
	<-ctx.Done()
	return ctx.Err()
}

func (b *NoopBotAdapter) StopPolling() {}

func (b *NoopBotAdapter) HandleWebhookUpdate(_ context.Context, up tgbotapi.Update) {
	b.log.Debug().Int("update_id", up.UpdateID).Msg("noop bot dropped webhook update")
}

func (b *NoopBotAdapter) RegisterWebhook(string) error {
	return errors.New("telegram is disabled, no bot token configured")
}
