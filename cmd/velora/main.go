package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/velora-pos/velora/internal/app"
	"github.com/velora-pos/velora/internal/auth"
	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/masterdata/suppliers"
	"github.com/velora-pos/velora/internal/notify"
	"github.com/velora-pos/velora/internal/platform/cache"
	"github.com/velora-pos/velora/internal/platform/db"
	"github.com/velora-pos/velora/internal/purchases"
	"github.com/velora-pos/velora/internal/sales"
	"github.com/velora-pos/velora/internal/stats"
	"github.com/velora-pos/velora/internal/users"
	"github.com/velora-pos/velora/jobs"
)

// supplierLookup adapts the supplier service to the purchases port.
type supplierLookup struct {
	svc *suppliers.Service
}

func (l supplierLookup) Exists(ctx context.Context, id int64) (bool, error) {
	return l.svc.Exists(ctx, id)
}

// customerLookup adapts the user service to the sales port.
type customerLookup struct {
	svc *users.Service
}

func (l customerLookup) Exists(ctx context.Context, id int64) (bool, error) {
	return l.svc.Exists(ctx, id)
}

func (l customerLookup) DisplayName(ctx context.Context, id int64) (string, error) {
	u, err := l.svc.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, statistics cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	validate := validator.New()

	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)
	authSvc := auth.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authSvc, userSvc, validate)

	catalogRepo := catalog.NewRepository(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogSvc, validate)

	supplierRepo := suppliers.NewRepository(pool)
	supplierSvc := suppliers.NewService(supplierRepo)
	supplierHandler := suppliers.NewHandler(logger, supplierSvc, validate)

	purchaseRepo := purchases.NewRepository(pool)
	purchaseSvc := purchases.NewService(purchaseRepo, supplierLookup{svc: supplierSvc})
	purchaseHandler := purchases.NewHandler(logger, purchaseSvc, validate)

	salesRepo := sales.NewRepository(pool)
	salesSvc := sales.NewService(logger, salesRepo, customerLookup{svc: userSvc}, jobs.NewEventSink(queueClient))
	salesHandler := sales.NewHandler(logger, salesSvc, validate)

	statsRepo := stats.NewRepository(pool)
	statsSvc := stats.NewService(statsRepo, stats.NewCache(redisClient, cfg.StatsCacheTTL))
	statsHandler := stats.NewHandler(logger, statsSvc)

	notifyRepo := notify.NewRepository(pool)
	notifySvc := notify.NewService(logger, notifyRepo, userSvc)
	notifyHandler := notify.NewHandler(logger, notifySvc)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthService:     authSvc,
		AuthHandler:     authHandler,
		CatalogHandler:  catalogHandler,
		SupplierHandler: supplierHandler,
		PurchaseHandler: purchaseHandler,
		SalesHandler:    salesHandler,
		StatsHandler:    statsHandler,
		NotifyHandler:   notifyHandler,
		JobsHandler:     jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
