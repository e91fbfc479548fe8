package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-course-access/internal/config"
	"telegram-course-access/internal/domain/ports/adapter"
	payAdapters "telegram-course-access/internal/infra/adapters/payment"
	tele "telegram-course-access/internal/infra/adapters/telegram"
	"telegram-course-access/internal/infra/api"
	pg "telegram-course-access/internal/infra/db/postgres"
	"telegram-course-access/internal/infra/logging"
	"telegram-course-access/internal/infra/metrics"
	red "telegram-course-access/internal/infra/redis"
	"telegram-course-access/internal/infra/sched"
	"telegram-course-access/internal/infra/web"
	"telegram-course-access/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (mock gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	orderRepo := pg.NewOrderRepo(pool)
	userRepo := pg.NewTelegramUserRepo(pool)
	grantRepo := pg.NewAccessGrantRepo(pool)
	attemptRepo := pg.NewTokenAttemptRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if strings.ToLower(cfg.Payment.Mode) == "paynet" && !cfg.Runtime.Dev {
		gateway, err = payAdapters.NewPaynetGateway(cfg.Payment.Paynet)
		if err != nil {
			logger.Fatal().Err(err).Msg("paynet gateway init failed")
		}
	} else {
		gateway = payAdapters.NewNoopGateway(cfg.Site.URL)
		cfg.Payment.Mode = "mock"
	}
	logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway ready")

	// ---- Use cases ----
	checkoutUC := usecase.NewCheckoutUseCase(orderRepo, gateway, cfg.Products, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(orderRepo, gateway, logger)
	verifyUC := usecase.NewVerifyUseCase(orderRepo, userRepo, grantRepo, attemptRepo, txm, logger)

	// ---- Telegram bot ----
	var botAdapter tele.Bot
	if cfg.Bot.Token == "" {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("bot token is required outside developer mode")
		}
		botAdapter = tele.NewNoopBotAdapter(logger)
	} else {
		botAdapter, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, cfg.Site.URL, verifyUC, rateLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram init failed")
		}
	}

	var botSink api.UpdateSink
	switch strings.ToLower(cfg.Bot.Mode) {
	case "webhook":
		botSink = botAdapter
		whURL := strings.TrimSuffix(cfg.Site.URL, "/") + cfg.Bot.WebhookPath
		if err := botAdapter.RegisterWebhook(whURL); err != nil {
			logger.Error().Err(err).Str("url", whURL).Msg("webhook registration failed, register manually via the admin API")
		}
	default:
		go func() {
			if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- HTTP server ----
	apiServer := api.NewServer(checkoutUC, orderUC, paymentUC, verifyUC, botSink, cfg, logger)
	router := apiServer.Router()

	adminServer := web.NewServer(attemptRepo, botAdapter, cfg, logger)
	adminServer.RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Stale order expiry ----
	worker := sched.NewExpiryWorker(15*time.Minute, cfg.Checkout.OrderTTL, orderRepo, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	botAdapter.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
