package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/get-synced/Magnet/cmd/mainconfig"
	"github.com/get-synced/Magnet/internal/api/router"
	"github.com/get-synced/Magnet/internal/booking"
	"github.com/get-synced/Magnet/internal/chat"
	appconfig "github.com/get-synced/Magnet/internal/config"
	"github.com/get-synced/Magnet/internal/discovery"
	"github.com/get-synced/Magnet/internal/leads"
	"github.com/get-synced/Magnet/internal/notify"
	"github.com/get-synced/Magnet/internal/observability/metrics"
	"github.com/get-synced/Magnet/internal/prompt"
	"github.com/get-synced/Magnet/internal/webchat"
	"github.com/get-synced/Magnet/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting Magnet API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	// Leads storage: postgres when configured, in-memory otherwise.
	var leadsRepo leads.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)
		logger.Info("leads repository: postgres")
	} else {
		leadsRepo = leads.NewInMemoryRepository()
		logger.Info("leads repository: in-memory")
	}

	// Chat sessions: redis when configured, in-memory otherwise.
	var sessionStore chat.SessionStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		sessionStore = chat.NewRedisSessionStore(redisClient, cfg.SessionTTL)
		logger.Info("session store: redis", "ttl", cfg.SessionTTL)
	} else {
		sessionStore = chat.NewMemorySessionStore()
		logger.Info("session store: in-memory")
	}

	llm := buildLLMClient(ctx, cfg, logger)

	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout, chatMetrics, logger)
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}

	engine := chat.NewEngine(llm, prompt.MustNewBuilder(""), notifier, chatMetrics, logger, chat.EngineConfig{
		Temperature: float32(cfg.ChatTemperature),
		MaxTokens:   int32(cfg.ChatMaxTokens),
		Timeout:     cfg.LLMTimeout,
	})

	chatService := chat.NewService(chat.ServiceConfig{
		Engine:    engine,
		Store:     sessionStore,
		Calendar:  booking.NewCalendar(cfg.BookingCalendarURL, cfg.BookingMeetingLengthMins),
		Notifier:  notifier,
		Email:     emailSender,
		SalesTo:   cfg.SalesAlertEmail,
		LeadsRepo: leadsRepo,
		Metrics:   chatMetrics,
		Logger:    logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leadsRepo, notifier, logger),
		DiscoveryHandler:   discovery.NewHandler(chatService, leadsRepo, notifier, logger),
		ChatHandler:        chat.NewHandler(chatService, logger),
		WebChatHandler:     webchat.NewHandler(chatService, webchat.DefaultWidgetJS, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRateLimit:      cfg.ChatRateLimit,
		ChatRateBurst:      cfg.ChatRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient selects the completion provider. "auto" uses Gemini with a
// Bedrock fallback when both are configured.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) chat.LLMClient {
	var gemini chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		gemini = client
	}

	var bedrock chat.LLMClient
	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		bedrock = chat.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	switch cfg.LLMProvider {
	case "gemini":
		if gemini == nil {
			logger.Error("LLM_PROVIDER=gemini but GEMINI_API_KEY is not set")
			os.Exit(1)
		}
		return gemini
	case "bedrock":
		if bedrock == nil {
			logger.Error("LLM_PROVIDER=bedrock but BEDROCK_MODEL_ID is not set")
			os.Exit(1)
		}
		return bedrock
	default: // auto
		switch {
		case gemini != nil && bedrock != nil:
			logger.Info("llm: gemini primary with bedrock fallback")
			return chat.NewFallbackLLMClient(gemini, bedrock, logger)
		case gemini != nil:
			return gemini
		case bedrock != nil:
			return bedrock
		default:
			logger.Error("no LLM provider configured; set GEMINI_API_KEY or BEDROCK_MODEL_ID")
			os.Exit(1)
			return nil
		}
	}
}
