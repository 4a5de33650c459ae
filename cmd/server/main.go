package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/api"
	"github.com/d60-Lab/tailorshop/internal/api/handler"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/database"
	"github.com/d60-Lab/tailorshop/pkg/logger"
	"github.com/d60-Lab/tailorshop/pkg/tracing"
)

// @title Tailorshop API
// @version 1.0
// @description Tailoring shop management service
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "tailorshop", cfg.Tracing.Endpoint)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		os.Exit(1)
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
	if err := model.SeedReferenceData(db); err != nil {
		logger.Error("reference data seed failed", zap.Error(err))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	audit := service.NewAuditService()
	users := service.NewUserService(db, cfg.JWT)
	customers := service.NewCustomerService(db, users, audit)
	inventory := service.NewInventoryService(db, audit)
	billing := service.NewBillingService(db, cfg.Pricing)
	mailer := service.NewSMTPMailer(cfg.SMTP)
	notifications := service.NewNotificationService(db, mailer, cfg.Dispatcher)
	policy := service.DefaultTransitionPolicy()
	orders := service.NewOrderService(db, cfg.Pricing, policy, billing, inventory, notifications, audit)
	trials := service.NewTrialService(db, billing, notifications, audit)
	gateway := service.NewHMACGateway(cfg.Gateway)
	payments := service.NewPaymentService(db, gateway, cfg.Gateway, billing, notifications, audit)
	reports := service.NewReportService(db, rdb, 30*time.Second)

	notifications.StartDispatcher(ctx)
	defer notifications.StopDispatcher()

	h := handler.New(users, customers, orders, trials, inventory, billing, payments, reports, notifications)
	r := api.NewRouter(cfg.Server.Mode, h, users, sentryEnabled)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
