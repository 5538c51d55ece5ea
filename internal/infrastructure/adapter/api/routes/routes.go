package routes

import (
	"net/http"
	"time"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	User    *handler.UserHandler
	Wallet  *handler.WalletHandler
	Health  *handler.HealthHandler
	Metrics http.Handler // nil disables the exposition endpoint
}

// MiddlewareOptions configures the optional global middlewares
type MiddlewareOptions struct {
	AllowedOrigins []string
	HTTPMetrics    middleware.HTTPMetrics // nil disables request metrics

	// Idempotency is enabled when IdempotencyStore is set
	IdempotencyStore  *redis.Client
	IdempotencyPrefix string
	IdempotencyTTL    time.Duration
	// IdempotencyInFlightTTL bounds how long a key stays reserved by a request
	// that never finishes; zero uses IdempotencyTTL
	IdempotencyInFlightTTL time.Duration
}

// SetupRoutes configures all the routes for the API under basePath
func SetupRoutes(router *gin.Engine, basePath, metricsPath string, h Handlers) {
	router.GET("/", h.Health.Root)
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET(metricsPath, gin.WrapH(h.Metrics))
	}

	api := router.Group(basePath)

	userRoutes := api.Group("/users")
	{
		// POST /users
		userRoutes.POST("", h.User.Provision)

		// GET /users/:externalId
		userRoutes.GET("/:externalId", h.User.GetUser)
	}

	walletRoutes := api.Group("/wallets")
	{
		// PATCH /wallets/:walletId
		walletRoutes.PATCH("/:walletId", h.Wallet.SetBalance)

		// POST /wallets/:walletId/transactions
		walletRoutes.POST("/:walletId/transactions", h.Wallet.CreateTransaction)

		// GET /wallets/:walletId/transactions
		walletRoutes.GET("/:walletId/transactions", h.Wallet.GetHistory)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, opts MiddlewareOptions) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	if opts.HTTPMetrics != nil {
		router.Use(middleware.Metrics(opts.HTTPMetrics))
	}
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	if opts.IdempotencyStore != nil {
		router.Use(middleware.Idempotency(opts.IdempotencyStore, opts.IdempotencyPrefix,
			opts.IdempotencyTTL, opts.IdempotencyInFlightTTL, logger))
	}
}
