package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/catalog"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/database"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
	"go.uber.org/zap"
)

func main() {
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

	store, closeStore, err := database.OpenStore(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			zapLogger.Error("Failed to close store", zap.Error(err))
		}
	}()

	plans, err := catalog.Load(cfg.Service.PlanCatalogPath)
	if err != nil {
		zapLogger.Fatal("Failed to load plan catalog", zap.Error(err))
	}

	resolver := usecase.NewPlanResolver(store.Plans(), plans, cfg.Service.Currency, zapLogger)
	planSync := usecase.NewPlanSyncService(resolver, zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	synced, err := planSync.SyncCatalog(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to seed plans", zap.Error(err))
	}

	for _, plan := range synced {
		zapLogger.Info("Plan ready",
			zap.String("plan_id", plan.ID.String()),
			zap.String("type", string(plan.Type)),
			zap.String("price", plan.Price.StringFixed(2)),
			zap.String("currency", plan.Currency))
	}

	zapLogger.Info("Plan seeding completed", zap.Int("plans", len(synced)))
}
