// Package app assembles the QC portal from configuration. cmd/server and cmd/qcctl
// share it so both run against the same store, policy and service wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"qcportal/internal/qc/analytics"
	"qcportal/internal/qc/audit"
	"qcportal/internal/qc/config"
	"qcportal/internal/qc/handler"
	"qcportal/internal/qc/identity"
	"qcportal/internal/qc/policy"
	"qcportal/internal/qc/repository"
	"qcportal/internal/qc/router"
	"qcportal/internal/qc/service"
	"qcportal/internal/qc/util"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type App struct {
	Config  *config.Config
	Store   repository.Store
	Policy  *policy.Engine
	Service *service.Service

	client *mongo.Client
}

// New opens the configured store and builds the service graph
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := util.GetLogger()
	a := &App{Config: cfg}

	// 1. Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		a.Store = repository.NewMemoryRepository()
	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		a.client = client
		repo := repository.NewMongoRepository(client.Database(cfg.DBName))
		if err := repo.Ping(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ping MongoDB: %w", err)
		}
		a.Store = repo
	}

	if err := a.Store.EnsureIndexes(ctx); err != nil {
		// Duplicate batches and users are only prevented by these indexes
		logger.Error("failed to ensure indexes", "error", err)
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	// 2. Policy & identity
	engine, err := policy.NewEngine()
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	a.Policy = engine

	hasher, err := identity.NewHasher(cfg.BcryptCost)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	// 3. Service
	a.Service = service.NewService(
		a.Store,
		audit.NewLogger(a.Store, a.Store),
		identity.NewProvider(a.Store, hasher, tokens),
		engine,
		analytics.NewAggregator(a.Store, cfg.OperationTimeout),
		service.WithTimeout(cfg.OperationTimeout),
	)

	return a, nil
}

// Echo builds the HTTP server with access logging and all routes
func (a *App) Echo() *echo.Echo {
	logger := util.GetLogger()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	h := handler.NewQCHandler(a.Service, a.Store)
	router.RegisterRoutes(e, h, a.Policy, a.Service, a.Config.CORSOrigins)
	return e
}

// Close releases the store connection
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
