package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/adcampaign-billing/internal/adapter/repository"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"github.com/wekeepgrowing/adcampaign-billing/internal/infrastructure/database"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return repository.NewStore(db, zap.NewNop())
}

func starterPlan() *model.Plan {
	maxAccounts := 3
	return &model.Plan{
		Type:         model.PlanTypeStarter,
		Name:         "Starter",
		Price:        decimal.RequireFromString("29.90"),
		Currency:     "USD",
		BillingCycle: model.BillingCycleMonthly,
		Features:     model.Features{"Up to 3 ad accounts", "Email support"},
		MaxAccounts:  &maxAccounts,
		IsActive:     true,
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create or get keeps one row per well-known type", func(t *testing.T) {
		store := newTestStore(t)

		first, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)
		second, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.True(t, decimal.RequireFromString("29.9").Equal(second.Price))
		assert.Equal(t, model.Features{"Up to 3 ad accounts", "Email support"}, second.Features)
		require.NotNil(t, second.MaxAccounts)
		assert.Equal(t, 3, *second.MaxAccounts)

		plans, err := store.Plans().ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, plans, 1)
	})

	t.Run("custom plans are not deduplicated", func(t *testing.T) {
		store := newTestStore(t)
		custom := func() *model.Plan {
			return &model.Plan{
				Type:         model.PlanTypeCustom,
				Name:         "Agency Bundle",
				Price:        decimal.RequireFromString("499"),
				Currency:     "USD",
				BillingCycle: model.BillingCycleYearly,
				IsActive:     true,
			}
		}

		a, err := store.Plans().CreateOrGet(ctx, custom())
		require.NoError(t, err)
		b, err := store.Plans().CreateOrGet(ctx, custom())
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("lookups", func(t *testing.T) {
		store := newTestStore(t)
		plan, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)

		byID, err := store.Plans().GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.ID, byID.ID)

		byName, err := store.Plans().FindActiveByTypeOrName(ctx, "Starter")
		require.NoError(t, err)
		assert.Equal(t, plan.ID, byName.ID)

		byType, err := store.Plans().FindActiveByTypeOrName(ctx, "starter")
		require.NoError(t, err)
		assert.Equal(t, plan.ID, byType.ID)

		missing, err := store.Plans().GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = store.Plans().FindActiveByTypeOrName(ctx, "Platinum")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestStore_WithUserLock(t *testing.T) {
	ctx := context.Background()

	t.Run("commits subscription and payment together", func(t *testing.T) {
		store := newTestStore(t)
		plan, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Second)
		err = store.WithUserLock(ctx, "user-1", func(tx domainRepo.Store) error {
			sub := &model.Subscription{
				UserID:        "user-1",
				PlanID:        plan.ID,
				Status:        model.SubscriptionStatusActive,
				StartDate:     now,
				EndDate:       now.Add(30 * 24 * time.Hour),
				Amount:        plan.Price,
				PaymentMethod: model.PaymentMethodCard,
				Plan:          plan,
			}
			if err := tx.Subscriptions().Create(ctx, sub); err != nil {
				return err
			}
			return tx.Payments().Create(ctx, &model.Payment{
				UserID:         "user-1",
				SubscriptionID: &sub.ID,
				Type:           model.PaymentTypeDeposit,
				Status:         model.PaymentStatusCompleted,
				Method:         model.PaymentMethodCard,
				Amount:         plan.Price,
				Currency:       "USD",
				TransactionID:  "tx_1",
				Metadata:       model.JSONB{model.MetadataTransactionID: "tx_1"},
			})
		})
		require.NoError(t, err)

		active, err := store.Subscriptions().GetActiveByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, active)
		require.NotNil(t, active.Plan)
		assert.Equal(t, model.PlanTypeStarter, active.Plan.Type)

		payments, err := store.Payments().ListByUserID(ctx, "user-1", 10)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, "tx_1", payments[0].Metadata[model.MetadataTransactionID])

		stored, err := store.Payments().GetByID(ctx, payments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, payments[0].ID, stored.ID)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store := newTestStore(t)
		plan, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)

		errAbort := errors.New("abort")
		err = store.WithUserLock(ctx, "user-1", func(tx domainRepo.Store) error {
			if err := tx.Subscriptions().Create(ctx, &model.Subscription{
				UserID:        "user-1",
				PlanID:        plan.ID,
				Status:        model.SubscriptionStatusActive,
				StartDate:     time.Now(),
				EndDate:       time.Now().Add(time.Hour),
				Amount:        plan.Price,
				PaymentMethod: model.PaymentMethodCard,
			}); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		active, err := store.Subscriptions().GetActiveByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("second active subscription violates the unique index", func(t *testing.T) {
		store := newTestStore(t)
		plan, err := store.Plans().CreateOrGet(ctx, starterPlan())
		require.NoError(t, err)

		newSub := func() *model.Subscription {
			return &model.Subscription{
				UserID:        "user-1",
				PlanID:        plan.ID,
				Status:        model.SubscriptionStatusActive,
				StartDate:     time.Now(),
				EndDate:       time.Now().Add(time.Hour),
				Amount:        plan.Price,
				PaymentMethod: model.PaymentMethodCard,
			}
		}
		require.NoError(t, store.Subscriptions().Create(ctx, newSub()))
		assert.Error(t, store.Subscriptions().Create(ctx, newSub()))
	})
}
