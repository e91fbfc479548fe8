package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/adapter"
	"telegram-course-access/internal/infra/logging"
	"telegram-course-access/internal/infra/metrics"
	"telegram-course-access/internal/usecase"
)

// UpdateSink receives webhook-delivered bot updates. Nil in polling mode.
type UpdateSink interface {
	HandleWebhookUpdate(ctx context.Context, up tgbotapi.Update)
}

// Server exposes the storefront API: checkout, order polling, payment
// callbacks and the HTTP verification surface.
type Server struct {
	checkoutUC usecase.CheckoutUseCase
	orderUC    usecase.OrderUseCase
	paymentUC  usecase.PaymentUseCase
	verifyUC   usecase.VerifyUseCase
	botSink    UpdateSink
	cfg        *config.Config
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	orderUC usecase.OrderUseCase,
	paymentUC usecase.PaymentUseCase,
	verifyUC usecase.VerifyUseCase,
	botSink UpdateSink,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC: checkoutUC,
		orderUC:    orderUC,
		paymentUC:  paymentUC,
		verifyUC:   verifyUC,
		botSink:    botSink,
		cfg:        cfg,
		log:        logger,
	}
}

// Router builds the chi mux with all public routes attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recover(s.log), TraceID(s.log), RequestLog(s.log), Timeout(15*time.Second))

	r.Post("/api/checkout/create", s.handleCheckoutCreate)
	r.Get("/api/orders/status", s.handleOrderStatus)
	r.Get("/api/orders/access", s.handleOrderAccess)
	r.Post("/api/payment/callback", s.handlePaymentCallback)
	r.Post("/api/telegram/verify", s.handleVerify)
	r.Get("/api/config", s.handleConfig)

	if s.cfg.Payment.Mode == "mock" {
		r.Get("/mock/pay", s.handleMockPay)
	}
	if s.botSink != nil && s.cfg.Bot.WebhookPath != "" {
		r.Post(s.cfg.Bot.WebhookPath, s.handleTelegramWebhook)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type checkoutCreateRequest struct {
	ProductID string `json:"product_id"`
}

type checkoutCreateResponse struct {
	OrderID  string `json:"order_id"`
	PayURL   string `json:"pay_url"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (s *Server) handleCheckoutCreate(w http.ResponseWriter, r *http.Request) {
	var req checkoutCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" && len(s.cfg.Products) == 1 {
		for id := range s.cfg.Products {
			req.ProductID = id
		}
	}

	order, payURL, err := s.checkoutUC.Create(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProduct) {
			writeError(w, http.StatusBadRequest, "unknown product")
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("checkout failed")
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	metrics.IncOrder("pending")
	writeJSON(w, http.StatusCreated, checkoutCreateResponse{
		OrderID:  order.ID,
		PayURL:   payURL,
		Amount:   order.Amount,
		Currency: order.Currency,
	})
}

type orderStatusResponse struct {
	OrderID string     `json:"order_id"`
	Status  string     `json:"status"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := s.orderUC.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("order status failed")
		writeError(w, http.StatusInternalServerError, "order lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		PaidAt:  order.PaidAt,
	})
}

type orderAccessResponse struct {
	AccessToken string `json:"access_token"`
	DeepLink    string `json:"telegram_deep_link"`
}

func (s *Server) handleOrderAccess(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	token, err := s.orderUC.AccessToken(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrOrderNotPaid):
			writeError(w, http.StatusForbidden, "order not paid")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("order access failed")
			writeError(w, http.StatusInternalServerError, "order lookup failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, orderAccessResponse{
		AccessToken: token,
		DeepLink:    "https://t.me/" + s.cfg.Bot.Username + "?start=access_" + token,
	})
}

// notifyRequest mirrors the provider callback body. Some gateway versions
// send snake_case keys, so both spellings are accepted.
type notifyRequest struct {
	EventID   string      `json:"eventId"`
	OrderID   string      `json:"orderId"`
	PaymentID string      `json:"paymentId"`
	Amount    json.Number `json:"amount"`
	Status    string      `json:"status"`
	Signature string      `json:"signature"`

	EventIDSnake   string `json:"event_id"`
	OrderIDSnake   string `json:"order_id"`
	PaymentIDSnake string `json:"payment_id"`
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// handlePaymentCallback acks every delivery with 200 so the provider does
// not retry on our internal failures; the outcome lands in logs and metrics.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	l := logging.With(r.Context(), s.log)

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn().Err(err).Msg("callback body undecodable")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}

	amount, _ := req.Amount.Int64()
	n := adapter.Notification{
		EventID:   firstNonEmpty(req.EventID, req.EventIDSnake),
		OrderID:   firstNonEmpty(req.OrderID, req.OrderIDSnake),
		PaymentID: firstNonEmpty(req.PaymentID, req.PaymentIDSnake),
		Amount:    amount,
		Status:    req.Status,
		Signature: req.Signature,
	}

	order, transitioned, err := s.paymentUC.HandleNotification(r.Context(), n)
	if err != nil {
		l.Warn().Err(err).Str("order_id", n.OrderID).Msg("callback rejected")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": false})
		return
	}
	if transitioned {
		metrics.IncOrder("paid")
		metrics.AddPaymentRevenue(order.Currency, order.Amount)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleMockPay settles the order without a provider round trip and sends
// the customer to the success page. Registered only in mock payment mode.
func (s *Server) handleMockPay(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("order")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, transitioned, err := s.paymentUC.SettleMock(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("mock settle failed")
		writeError(w, http.StatusInternalServerError, "settle failed")
		return
	}
	if transitioned {
		metrics.IncOrder("paid")
		metrics.AddPaymentRevenue(order.Currency, order.Amount)
	}

	target := s.cfg.Site.URL + s.cfg.Site.SuccessPath + "?order=" + order.ID
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var up tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook update undecodable")
		w.WriteHeader(http.StatusOK)
		return
	}
	s.botSink.HandleWebhookUpdate(r.Context(), up)
	w.WriteHeader(http.StatusOK)
}

type verifyRequest struct {
	Token          string `json:"token"`
	TelegramUserID int64  `json:"telegram_user_id"`
	Username       string `json:"username"`
}

type verifyResponse struct {
	OK        bool   `json:"ok"`
	Reason    string `json:"reason"`
	ProductID string `json:"product_id,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramUserID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid telegram_user_id")
		return
	}

	outcome := s.verifyUC.Verify(r.Context(), req.Token, req.TelegramUserID, req.Username)
	metrics.IncVerify(string(outcome.Reason), "http")

	writeJSON(w, verifyStatusCode(outcome.Reason), verifyResponse{
		OK:        outcome.OK,
		Reason:    string(outcome.Reason),
		ProductID: outcome.ProductID,
	})
}

func verifyStatusCode(reason model.VerifyReason) int {
	switch reason {
	case model.VerifyOK:
		return http.StatusOK
	case model.VerifyBadFormat:
		return http.StatusBadRequest
	case model.VerifyNotFound, model.VerifyTokenUsedByOther:
		return http.StatusNotFound
	case model.VerifyNotPaid:
		return http.StatusForbidden
	case model.VerifyBlocked, model.VerifyRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"telegramBotUsername": s.cfg.Bot.Username,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
