// Command server runs the inventory HTTP API.
//
//	@title						Inventory API
//	@version					1.0
//	@description				Inventory management API with cookie-based sessions and role-gated item mutations.
//	@BasePath					/
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						token
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	_ "github.com/stockroom/inventory-api/docs"
	"github.com/stockroom/inventory-api/internal/api"
	"github.com/stockroom/inventory-api/internal/api/handler"
	"github.com/stockroom/inventory-api/internal/core/service"
	"github.com/stockroom/inventory-api/internal/infrastructure/config"
	mongodb "github.com/stockroom/inventory-api/internal/infrastructure/db/mongo"
	redisdb "github.com/stockroom/inventory-api/internal/infrastructure/db/redis"
	"github.com/stockroom/inventory-api/internal/infrastructure/security"
	"github.com/stockroom/inventory-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		boot := logger.New(logger.Options{Service: "inventory-api"})
		boot.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "inventory-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	tokens, err := security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db, cfg.Mongo.Timeout)
	items := mongodb.NewItemRepository(db, cfg.Mongo.Timeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := items.EnsureIndexes(ctx); err != nil {
		return err
	}

	authService := service.NewAuthService(
		users,
		security.NewBcryptHasher(security.DefaultCost),
		tokens,
		log.With().Str("component", "auth").Logger(),
		service.WithRevocationStore(redisdb.NewRevocationStore(rdb)),
		service.WithLoginLimiter(redisdb.NewLoginLimiter(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)),
		service.WithAdminSelfRegistration(cfg.Auth.AllowAdminSelfRegistration),
	)
	itemService := service.NewItemService(items, log.With().Str("component", "items").Logger())

	e := api.NewRouter(api.Dependencies{
		AuthService:       authService,
		ItemService:       itemService,
		Logger:            log,
		SecureCookies:     cfg.SecureCookies(),
		ItemsPublicRead:   cfg.ItemsPublicRead,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		MetricsRegisterer: prometheus.DefaultRegisterer,
		ReadinessChecks: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	if cfg.Auth.AllowAdminSelfRegistration {
		log.Warn().Msg("admin self-registration is enabled")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
