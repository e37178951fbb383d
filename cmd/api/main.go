// Command api starts the commerce HTTP API.
//
//	@title						Commerce API
//	@version					1.0
//	@description				Users, JWT sessions and Mercado Pago payments with websocket confirmations.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/storefront/commerce-api/docs"
	"github.com/storefront/commerce-api/internal/api"
	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/service"
	mongodb "github.com/storefront/commerce-api/internal/infrastructure/db/mongo"
	redisdb "github.com/storefront/commerce-api/internal/infrastructure/db/redis"
	"github.com/storefront/commerce-api/internal/infrastructure/http/handlers"
	"github.com/storefront/commerce-api/internal/infrastructure/notify"
	"github.com/storefront/commerce-api/internal/infrastructure/payment/mercadopago"
	"github.com/storefront/commerce-api/internal/infrastructure/queue"
	"github.com/storefront/commerce-api/internal/infrastructure/token"
	"github.com/storefront/commerce-api/internal/pkg/config"
	"github.com/storefront/commerce-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger level comes from the config, so this one goes to stderr directly.
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Env:     cfg.Env,
		Service: "commerce-api",
	})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}
	if cfg.InsecureJWTSecret {
		log.Warn().Msg("JWT_SECRET is not set; using an insecure development secret")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	paymentEvents := mongodb.NewPaymentEventRepository(db)
	dedup := redisdb.NewNotificationDedup(rdb, cfg.Redis.DedupTTL)

	// --- Payment provider ---
	provider, err := mercadopago.NewClient(mercadopago.Config{
		AccessToken: cfg.MercadoPago.AccessToken,
		BaseURL:     cfg.MercadoPago.BaseURL,
		Timeout:     cfg.MercadoPago.Timeout,
	})
	if err != nil {
		return err
	}
	var verifier handler.SignatureVerifier
	if cfg.MercadoPago.WebhookSecret != "" {
		verifier = mercadopago.NewSignatureVerifier(cfg.MercadoPago.WebhookSecret)
	} else {
		log.Warn().Msg("MP_WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	// --- Services ---
	codec := token.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hub := notify.NewHub(0, logger.Component("hub"))
	authService := service.NewAuthService(users, codec, log)
	userService := service.NewUserService(users, log)
	paymentService := service.NewPaymentService(provider, hub, paymentEvents, dedup, log)

	// Workers outlive the signal context: webhooks acknowledged while the
	// server drains must still be processed.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.WebhookWorkers, paymentService, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:       log,
		Gate:      middleware.NewGate(codec, users, log),
		Auth:      handler.NewAuthHandler(authService, handler.CookieOptions{Secure: cfg.Auth.CookieSecure}),
		Users:     handler.NewUserHandler(userService),
		Payments:  handler.NewPaymentHandler(paymentService),
		Webhooks:  handler.NewWebhookHandler(dispatcher, verifier, log),
		Websocket: notify.NewWebsocketHandler(hub, cfg.CORSOrigins, log).Serve,
		Ready: handlers.NewHealthDependenciesHandler(map[string]handlers.Pinger{
			"mongodb": handlers.MongoPinger(db),
			"redis":   handlers.RedisPinger(rdb),
		}),
		CORSOrigins: cfg.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("webhook queue not drained before timeout")
		return err
	}
	log.Info().Msg("webhook queue drained")
	return nil
}
