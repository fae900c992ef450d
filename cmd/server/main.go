package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/adapters/postgres"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/config"
	reconciliationHandler "github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/handlers/reconciliation"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/cascade"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/divergence"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/history"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/matching"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/internal/services/settlement"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/pkg/logging"
	"github.com/lcsgmoraes-droid/Sistema-Pet-sub001/pkg/observability"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting reconciliation service",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbPool, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	handler := initDependencies(dbPool, cfg, logger)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.GinMiddleware())
	handler.RegisterRoutes(router)

	apiServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(
		fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	go func() {
		logger.Info("API server listening",
			zap.String("address", apiServer.Addr),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initDependencies wires repositories, services, and the HTTP handler
func initDependencies(dbPool *pgxpool.Pool, cfg *config.Config, zapLogger *zap.Logger) *reconciliationHandler.Handler {
	logger := logging.NewZapLogger(zapLogger)
	db := postgres.NewDBExecutor(dbPool)

	lineRepo := postgres.NewPaymentLineRepository(db)
	acquirerRepo := postgres.NewAcquirerTransactionRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	runRepo := postgres.NewRunRepository(db)
	receiptRepo := postgres.NewReceiptRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)
	installmentRepo := postgres.NewInstallmentRepository(db)
	scopeLocker := postgres.NewScopeLocker()

	classifier := divergence.NewClassifier(divergence.Config{
		RoundingEpsilon:  decimal.NewFromFloat(cfg.Tolerance.RoundingEpsilon),
		PercentThreshold: decimal.NewFromFloat(cfg.Tolerance.PercentThreshold),
	})

	matchingSvc := matching.NewService(db, lineRepo, acquirerRepo, matchRepo, classifier, logger)
	cascadeSvc := cascade.NewService(db, runRepo, receiptRepo, classifier,
		cascade.Config{MismatchConfidence: cfg.Tolerance.MismatchConfidence}, logger)
	settlementSvc := settlement.NewService(db, runRepo, receiptRepo, matchRepo,
		settlementRepo, installmentRepo, scopeLocker, logger)
	historySvc := history.NewService(runRepo, settlementRepo, logger)

	return reconciliationHandler.NewHandler(matchingSvc, cascadeSvc, settlementSvc, historySvc, logger)
}

func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
