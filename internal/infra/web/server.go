package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain/ports/repository"
)

// WebhookRegistrar points the Telegram platform at our public webhook URL.
type WebhookRegistrar interface {
	RegisterWebhook(webhookURL string) error
}

// Server is the operator-facing admin surface: session login, the token
// attempt audit log, and webhook management.
type Server struct {
	attempts repository.TokenAttemptRepository
	bot      WebhookRegistrar
	auth     *AuthManager
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewServer(
	attempts repository.TokenAttemptRepository,
	bot WebhookRegistrar,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	secure := strings.HasPrefix(cfg.Site.URL, "https://")
	return &Server{
		attempts: attempts,
		bot:      bot,
		auth:     NewAuthManager(cfg.Admin.JWTSecret, secure, cfg.Admin.SessionTTL),
		cfg:      cfg,
		log:      logger,
	}
}

// RegisterRoutes mounts the admin API onto the shared router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/admin/login", s.handleLogin)
	r.Post("/api/admin/logout", s.handleLogout)

	r.Group(func(g chi.Router) {
		g.Use(s.auth.RequireAdmin)
		g.Get("/api/admin/attempts", s.handleAttempts)
		g.Post("/api/admin/telegram/webhook", s.handleSetWebhook)
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !CheckPassword(req.Password, s.cfg.Admin.Password) {
		s.log.Warn().Msg("admin login rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type attemptView struct {
	ID             string    `json:"id"`
	TelegramUserID int64     `json:"telegram_user_id"`
	Success        bool      `json:"success"`
	Reason         string    `json:"reason"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.attempts.ListRecent(r.Context(), repository.NoTX, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list attempts failed")
		http.Error(w, "Failed to list attempts", http.StatusInternalServerError)
		return
	}

	views := make([]attemptView, 0, len(rows))
	for _, a := range rows {
		views = append(views, attemptView{
			ID:             a.ID,
			TelegramUserID: a.TelegramUserID,
			Success:        a.Success,
			Reason:         string(a.Reason),
			AttemptedAt:    a.AttemptedAt,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Data  []attemptView `json:"data"`
		Limit int           `json:"limit"`
	}{Data: views, Limit: limit})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, _ *http.Request) {
	if s.bot == nil {
		http.Error(w, "Bot is not running in webhook mode", http.StatusConflict)
		return
	}

	url := strings.TrimSuffix(s.cfg.Site.URL, "/") + s.cfg.Bot.WebhookPath
	if err := s.bot.RegisterWebhook(url); err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("webhook registration failed")
		http.Error(w, "Webhook registration failed", http.StatusBadGateway)
		return
	}

	s.log.Info().Str("url", url).Msg("webhook registered")
	writeJSON(w, http.StatusOK, map[string]string{"webhook_url": url})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
