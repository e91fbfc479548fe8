package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
	"telegram-course-access/internal/infra/logging"
	"telegram-course-access/internal/infra/metrics"
	red "telegram-course-access/internal/infra/redis"
	"telegram-course-access/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter uses tgbotapi to receive updates (long polling or
// webhook) and exchanges access tokens for course access via VerifyUseCase.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	siteURL     string
	verifyUC    usecase.VerifyUseCase
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	siteURL string,
	verifyUC usecase.VerifyUseCase,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if verifyUC == nil {
		return nil, errors.New("verify usecase is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		siteURL:       strings.TrimSuffix(siteURL, "/"),
		verifyUC:      verifyUC,
		rateLimiter:   rateLimiter,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up, "polling"); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// HandleWebhookUpdate processes one update delivered by the platform webhook.
// Errors stay internal; the HTTP layer always acks to prevent retry storms.
func (r *RealTelegramBotAdapter) HandleWebhookUpdate(ctx context.Context, up tgbotapi.Update) {
	if err := r.handleUpdate(ctx, up, "webhook"); err != nil {
		r.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("webhook update handling failed")
	}
}

// RegisterWebhook points the platform at the given public URL.
func (r *RealTelegramBotAdapter) RegisterWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return err
	}
	_, err = r.bot.Request(wh)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, up tgbotapi.Update, mode string) error {
	if up.CallbackQuery != nil {
		metrics.IncBotUpdate("callback", mode)
		return r.handleQuery(ctx, up.CallbackQuery)
	}

	msg := up.Message
	if msg == nil {
		msg = up.EditedMessage
	}
	if msg == nil || msg.From == nil {
		return nil
	}
	metrics.IncBotUpdate("message", mode)

	tgID := msg.From.ID
	username := msg.From.UserName
	ctx = logging.WithTgID(ctx, tgID)

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.ChatKey(msg.Chat.ID), 20, time.Minute)
		if err != nil {
			r.log.Error().Err(err).Msg("flood limiter unavailable")
		} else if !allowed {
			metrics.IncBotFloodDrop()
			return r.SendMessage(ctx, msg.Chat.ID, msgFlood)
		}
	}

	token, found := model.ExtractTokenFromText(msg.Text)
	if !found {
		// No token in the message: prompt and remember we are waiting for one.
		if err := r.verifyUC.TouchUser(ctx, tgID, username, model.TelegramUserStateAwaitingToken); err != nil {
			r.log.Error().Err(err).Msg("touch user failed")
		}
		return r.SendMessage(ctx, msg.Chat.ID, msgAskForToken)
	}

	outcome := r.verifyUC.Verify(ctx, token, tgID, username)
	metrics.IncVerify(string(outcome.Reason), "bot")

	if outcome.OK {
		return r.sendCourseMenu(ctx, msg.Chat.ID)
	}
	return r.SendMessage(ctx, msg.Chat.ID, verifyReplyText(outcome.Reason))
}

type cbHandler func(ctx context.Context, chatID int64) error

// Exact-match callbacks from the course menu.
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"lesson_1": func(ctx context.Context, id int64) error {
			return r.SendMessage(ctx, id, "📘 Lecția 1: "+r.siteURL+"/curs#lectia-1")
		},
		"lesson_2": func(ctx context.Context, id int64) error {
			return r.SendMessage(ctx, id, "📗 Lecția 2: "+r.siteURL+"/curs#lectia-2")
		},
		"exercises": func(ctx context.Context, id int64) error {
			return r.SendMessage(ctx, id, "🧠 Exerciții: "+r.siteURL+"/curs#exercitii")
		},
		"support": func(ctx context.Context, id int64) error {
			return r.SendMessage(ctx, id, "❓ Pentru suport scrie-ne aici și revenim cât de repede putem.")
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	// Acknowledge first so the client stops its spinner regardless of outcome.
	if _, err := r.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		r.log.Error().Err(err).Msg("answer callback failed")
	}
	if q.Message == nil {
		return nil
	}
	if fn, ok := r.cbRoutes()[q.Data]; ok {
		return fn(ctx, q.Message.Chat.ID)
	}
	r.log.Debug().Str("data", q.Data).Msg("unknown callback data")
	return nil
}

func (r *RealTelegramBotAdapter) sendCourseMenu(ctx context.Context, chatID int64) error {
	rows := [][]adapter.InlineButton{
		{
			{Text: "📘 Lecția 1", Data: "lesson_1"},
			{Text: "📗 Lecția 2", Data: "lesson_2"},
		},
		{{Text: "🧠 Exerciții", Data: "exercises"}},
		{{Text: "❓ Suport", Data: "support"}},
	}
	return r.SendButtons(ctx, chatID, msgConfirmed+"\n"+r.siteURL, rows)
}

// SendMessage implements the adapter port.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			btns = append(btns, kb)
		}
		kbRows = append(kbRows, btns)
	}

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}
