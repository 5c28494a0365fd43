package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/invoicer/internal/api"
	v1 "github.com/flexprice/invoicer/internal/api/v1"
	"github.com/flexprice/invoicer/internal/auth"
	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/idempotency"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/oracle"
	"github.com/flexprice/invoicer/internal/publisher"
	"github.com/flexprice/invoicer/internal/pubsub"
	pubsubMemory "github.com/flexprice/invoicer/internal/pubsub/memory"
	"github.com/flexprice/invoicer/internal/repository"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Invoicer API
// @version 1.0
// @description Invoice registry and multi-asset settlement
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Storage
			provideStorage,

			// Cache
			cache.NewInMemoryCache,
			provideIdempotencyStore,

			// Oracle
			oracle.NewPriceFeed,

			// PubSub
			providePubSub,
			publisher.NewEventPublisher,
			publisher.NewEventLogger,

			// Auth
			auth.NewProvider,
		),
		sentry.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewInvoiceService,
			service.NewSettlementService,
			service.NewTokenService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			publisher.RegisterEventLogger,
			startAPIServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideStorage(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*repository.Storage, error) {
	storage, err := repository.NewStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			storage.Close()
			return nil
		},
	})
	return storage, nil
}

func provideIdempotencyStore(c cache.Cache, cfg *config.Configuration) *idempotency.Store {
	return idempotency.NewStore(c, cfg.Server.IdempotencyTTL)
}

// providePubSub exposes the in-process channel under both of its roles
func providePubSub(lc fx.Lifecycle, log *logger.Logger) (pubsub.Publisher, pubsub.Subscriber) {
	ps := pubsubMemory.NewPubSub(log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return ps.Close()
		},
	})
	return ps, ps
}

func provideHandlers(
	logger *logger.Logger,
	storage *repository.Storage,
	invoiceService service.InvoiceService,
	settlementService service.SettlementService,
	tokenService service.TokenService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(storage, logger),
		Invoice: v1.NewInvoiceHandler(invoiceService, settlementService, logger),
		Payment: v1.NewPaymentHandler(settlementService, logger),
		Token:   v1.NewTokenHandler(tokenService, logger),
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
