package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"go.uber.org/zap"
)

func TestSubscriptionLedger_ApplyPurchase(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*testEnv, *usecase.SubscriptionLedger) {
		env := newTestEnv(t, usecase.PurchaseServiceConfig{})
		ledger := usecase.NewSubscriptionLedger(0, zap.NewNop()).WithClock(func() time.Time { return now })
		return env, ledger
	}

	t.Run("creates the first subscription", func(t *testing.T) {
		env, ledger := setup(t)
		plan, err := env.resolver.Resolve(ctx, "starter")
		require.NoError(t, err)

		sub, err := ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", plan, model.PaymentMethodCard)

		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
		assert.Equal(t, plan.ID, sub.PlanID)
		assert.Equal(t, now, sub.StartDate)
		assert.Equal(t, now.Add(30*24*time.Hour), sub.EndDate)
		assert.Equal(t, "Starter plan, 30-day term", sub.Notes)
		assert.True(t, plan.Price.Equal(sub.Amount))
	})

	t.Run("same type is rejected without writes", func(t *testing.T) {
		env, ledger := setup(t)
		plan, err := env.resolver.Resolve(ctx, "starter")
		require.NoError(t, err)
		first, err := ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", plan, model.PaymentMethodCard)
		require.NoError(t, err)

		_, err = ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", plan, model.PaymentMethodWallet)

		var active *domainErrors.PackageAlreadyActiveError
		require.True(t, errors.As(err, &active))
		assert.Equal(t, "Starter", active.PlanName)
		assert.Equal(t, first.EndDate, active.EndDate)

		subs := env.store.SubscriptionsByUser("user-1")
		require.Len(t, subs, 1)
		assert.Equal(t, model.PaymentMethodCard, subs[0].PaymentMethod)
	})

	t.Run("other type overwrites in place", func(t *testing.T) {
		env, ledger := setup(t)
		starter, err := env.resolver.Resolve(ctx, "starter")
		require.NoError(t, err)
		enterprise, err := env.resolver.Resolve(ctx, "enterprise")
		require.NoError(t, err)

		first, err := ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", starter, model.PaymentMethodCard)
		require.NoError(t, err)

		later := now.Add(72 * time.Hour)
		ledger.WithClock(func() time.Time { return later })
		sub, err := ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", enterprise, model.PaymentMethodCrypto)

		require.NoError(t, err)
		assert.Equal(t, first.ID, sub.ID)
		assert.Equal(t, enterprise.ID, sub.PlanID)
		assert.Equal(t, later, sub.StartDate)
		assert.Equal(t, later.Add(usecase.DefaultSubscriptionTerm), sub.EndDate)
		assert.Equal(t, model.PaymentMethodCrypto, sub.PaymentMethod)

		subs := env.store.SubscriptionsByUser("user-1")
		require.Len(t, subs, 1)
		assert.Equal(t, enterprise.ID, subs[0].PlanID)
	})

	t.Run("users are independent", func(t *testing.T) {
		env, ledger := setup(t)
		plan, err := env.resolver.Resolve(ctx, "starter")
		require.NoError(t, err)

		_, err = ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-1", plan, model.PaymentMethodCard)
		require.NoError(t, err)
		_, err = ledger.ApplyPurchase(ctx, env.store.Subscriptions(), "user-2", plan, model.PaymentMethodCard)
		require.NoError(t, err)

		assert.Len(t, env.store.SubscriptionsByUser("user-1"), 1)
		assert.Len(t, env.store.SubscriptionsByUser("user-2"), 1)
	})
}
