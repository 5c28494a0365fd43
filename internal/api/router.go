package api

import (
	v1 "github.com/flexprice/invoicer/internal/api/v1"
	"github.com/flexprice/invoicer/internal/auth"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/idempotency"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/metrics"
	"github.com/flexprice/invoicer/internal/rest/middleware"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Invoice *v1.InvoiceHandler
	Payment *v1.PaymentHandler
	Token   *v1.TokenHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	authProvider auth.Provider,
	idempotencyStore *idempotency.Store,
	sentryService *sentry.Service,
) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		metrics.GinMiddleware(),
		middleware.ErrorHandler(logger, sentryService),
		middleware.SentryScopeMiddleware,
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := router.Group("/v1")
	private := router.Group("/v1")
	private.Use(middleware.AuthenticateMiddleware(cfg, authProvider, logger))

	registerV1Routes(public, private, handlers, idempotencyStore, logger)

	return router
}

func registerV1Routes(
	public, private *gin.RouterGroup,
	handlers Handlers,
	idempotencyStore *idempotency.Store,
	logger *logger.Logger,
) {
	invoices := public.Group("/invoices")
	{
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.GET("/:id/exists", handlers.Invoice.InvoiceExists)
		invoices.GET("/:id/quote", handlers.Invoice.QuoteInvoice)
	}

	privateInvoices := private.Group("/invoices")
	{
		privateInvoices.POST("", handlers.Invoice.CreateInvoice)
		privateInvoices.POST("/:id/pay",
			middleware.IdempotencyMiddleware(idempotency.ScopeDirectPayment, idempotencyStore, logger),
			handlers.Payment.PayDirect)
		privateInvoices.POST("/:id/pay/converted",
			middleware.IdempotencyMiddleware(idempotency.ScopeConvertedPayment, idempotencyStore, logger),
			handlers.Payment.PayViaConvertedAsset)
	}

	tokens := public.Group("/tokens")
	{
		tokens.GET("", handlers.Token.ListAssets)
		tokens.GET("/:symbol/balances/:account", handlers.Token.GetBalance)
		tokens.GET("/:symbol/allowances/:holder/:spender", handlers.Token.GetAllowance)
	}

	privateTokens := private.Group("/tokens")
	{
		privateTokens.POST("/:symbol/mint", handlers.Token.Mint)
		privateTokens.POST("/:symbol/approve", handlers.Token.Approve)
	}
}
