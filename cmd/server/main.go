package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/catalog"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/database"
	grpcServer "github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/http"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/messaging"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/provider"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
	pkgMessaging "github.com/wekeepgrowing/adcampaign-billing/pkg/messaging"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
		zap.String("version", cfg.Service.Version),
	)

	// Initialize store
	store, closeStore, err := database.OpenStore(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			zapLogger.Error("Failed to close store", zap.Error(err))
		}
	}()

	// Plan catalog
	plans, err := catalog.Load(cfg.Service.PlanCatalogPath)
	if err != nil {
		zapLogger.Fatal("Failed to load plan catalog", zap.Error(err))
	}

	resolver := usecase.NewPlanResolver(store.Plans(), plans, cfg.Service.Currency, zapLogger)
	ledger := usecase.NewSubscriptionLedger(cfg.Service.SubscriptionTerm, zapLogger)
	gateways := provider.NewFactory(&cfg.Gateways, zapLogger).Registry()

	// Payment data protection
	var enc crypto.EncryptionService
	if cfg.Service.EncryptionKey != "" {
		aes, err := crypto.NewAESEncryptionService(cfg.Service.EncryptionKey)
		if err != nil {
			zapLogger.Fatal("Failed to initialize encryption", zap.Error(err))
		}
		enc = aes
	} else {
		zapLogger.Warn("No encryption key configured, sensitive payment data will be masked")
	}

	serviceCfg := usecase.PurchaseServiceConfig{
		GatewayTimeout: cfg.Service.GatewayTimeout,
		Sanitizer:      crypto.NewSanitizer(enc, zapLogger),
	}

	// Purchase events
	if cfg.Redis.Enabled {
		publisher, err := pkgMessaging.NewRedisPublisher(pkgMessaging.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer publisher.Close()

		serviceCfg.Events = messaging.NewPurchaseEventPublisher(publisher, cfg.Redis.EventsChannel, zapLogger)
		zapLogger.Info("Publishing purchase events", zap.String("channel", cfg.Redis.EventsChannel))
	}

	purchases := usecase.NewPurchaseService(store, resolver, ledger, gateways, serviceCfg, zapLogger)

	// Initialize servers
	var pinger grpcServer.Pinger
	if p, ok := store.(grpcServer.Pinger); ok {
		pinger = p
	}
	grpcSrv := grpcServer.NewServer(cfg, zapLogger, pinger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, purchases)

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown servers
	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
