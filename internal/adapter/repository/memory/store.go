// Package memory is an in-process repository.Store for local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
)

// ErrActiveSubscriptionExists mirrors the unique index on active
// subscriptions per user.
var ErrActiveSubscriptionExists = errors.New("user already has an active subscription")

// Store keeps plans, subscriptions and payments in maps guarded by one
// RWMutex. WithUserLock serializes callers per user with a dedicated mutex
// and buffers subscription and payment writes until fn succeeds.
type Store struct {
	mu            sync.RWMutex
	plans         map[uuid.UUID]*model.Plan
	subscriptions map[uuid.UUID]*model.Subscription
	payments      []*model.Payment

	locksMu   sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		plans:         make(map[uuid.UUID]*model.Plan),
		subscriptions: make(map[uuid.UUID]*model.Subscription),
		userLocks:     make(map[string]*sync.Mutex),
	}
}

func (s *Store) Plans() repository.PlanRepository {
	return &planRepository{s: s}
}

func (s *Store) Subscriptions() repository.SubscriptionRepository {
	return &subscriptionRepository{s: s}
}

func (s *Store) Payments() repository.PaymentRepository {
	return &paymentRepository{s: s}
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithUserLock holds the user's mutex while fn runs and commits buffered
// writes when fn returns nil.
func (s *Store) WithUserLock(ctx context.Context, userID string, fn func(tx repository.Store) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txStore{s: s, subscriptions: make(map[uuid.UUID]*model.Subscription)}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

// SubscriptionsByUser returns every subscription row of the user, active or not.
func (s *Store) SubscriptionsByUser(userID string) []*model.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			out = append(out, cloneSubscription(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func (s *Store) commit(tx *txStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sub := range tx.subscriptions {
		if sub.Status == model.SubscriptionStatusActive {
			for otherID, other := range s.subscriptions {
				if otherID != id && other.UserID == sub.UserID && other.Status == model.SubscriptionStatusActive {
					if staged, ok := tx.subscriptions[otherID]; ok && staged.Status != model.SubscriptionStatusActive {
						continue
					}
					return ErrActiveSubscriptionExists
				}
			}
		}
	}

	for id, sub := range tx.subscriptions {
		s.subscriptions[id] = sub
	}
	s.payments = append(s.payments, tx.payments...)
	return nil
}

// txStore is the Store handed to a WithUserLock callback.
type txStore struct {
	s             *Store
	subscriptions map[uuid.UUID]*model.Subscription
	payments      []*model.Payment
}

func (t *txStore) Plans() repository.PlanRepository {
	return &planRepository{s: t.s}
}

func (t *txStore) Subscriptions() repository.SubscriptionRepository {
	return &subscriptionRepository{s: t.s, tx: t}
}

func (t *txStore) Payments() repository.PaymentRepository {
	return &paymentRepository{s: t.s, tx: t}
}

func (t *txStore) WithUserLock(ctx context.Context, userID string, fn func(tx repository.Store) error) error {
	return fmt.Errorf("nested WithUserLock for user %s", userID)
}

type planRepository struct {
	s *Store
}

func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if p, ok := r.s.plans[id]; ok {
		return clonePlan(p), nil
	}
	return nil, nil
}

func (r *planRepository) GetByType(ctx context.Context, planType model.PlanType) (*model.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return clonePlan(r.s.firstPlan(func(p *model.Plan) bool { return p.Type == planType })), nil
}

func (r *planRepository) FindActiveByTypeOrName(ctx context.Context, value string) (*model.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return clonePlan(r.s.firstPlan(func(p *model.Plan) bool {
		return p.IsActive && (string(p.Type) == value || p.Name == value)
	})), nil
}

func (r *planRepository) CreateOrGet(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if plan.Type != model.PlanTypeCustom {
		if existing := r.s.firstPlan(func(p *model.Plan) bool { return p.Type == plan.Type }); existing != nil {
			return clonePlan(existing), nil
		}
	}

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.s.plans[plan.ID] = clonePlan(plan)
	return clonePlan(plan), nil
}

func (r *planRepository) ListActive(ctx context.Context) ([]*model.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var plans []*model.Plan
	for _, p := range r.s.plans {
		if p.IsActive {
			plans = append(plans, clonePlan(p))
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].Price.Equal(plans[j].Price) {
			return plans[i].Price.LessThan(plans[j].Price)
		}
		return plans[i].Name < plans[j].Name
	})
	return plans, nil
}

// firstPlan returns the oldest plan matching fn. Callers hold mu.
func (s *Store) firstPlan(fn func(*model.Plan) bool) *model.Plan {
	var found *model.Plan
	for _, p := range s.plans {
		if fn(p) && (found == nil || p.CreatedAt.Before(found.CreatedAt)) {
			found = p
		}
	}
	return found
}

type subscriptionRepository struct {
	s  *Store
	tx *txStore
}

func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var active *model.Subscription
	if r.tx != nil {
		for _, sub := range r.tx.subscriptions {
			if sub.UserID == userID && sub.Status == model.SubscriptionStatusActive {
				active = sub
			}
		}
	}
	if active == nil {
		for id, sub := range r.s.subscriptions {
			if r.tx != nil {
				if _, staged := r.tx.subscriptions[id]; staged {
					continue
				}
			}
			if sub.UserID == userID && sub.Status == model.SubscriptionStatusActive {
				active = sub
				break
			}
		}
	}
	if active == nil {
		return nil, nil
	}

	out := cloneSubscription(active)
	out.Plan = clonePlan(r.s.plans[out.PlanID])
	return out, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
	}
	now := time.Now()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}
	subscription.UpdatedAt = now

	if r.tx != nil {
		r.tx.subscriptions[subscription.ID] = cloneSubscription(subscription)
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if subscription.Status == model.SubscriptionStatusActive {
		for _, other := range r.s.subscriptions {
			if other.UserID == subscription.UserID && other.Status == model.SubscriptionStatusActive {
				return ErrActiveSubscriptionExists
			}
		}
	}
	r.s.subscriptions[subscription.ID] = cloneSubscription(subscription)
	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, subscription *model.Subscription) error {
	subscription.UpdatedAt = time.Now()

	if r.tx != nil {
		r.tx.subscriptions[subscription.ID] = cloneSubscription(subscription)
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscriptions[subscription.ID]; !ok {
		return fmt.Errorf("subscription %s not found", subscription.ID)
	}
	r.s.subscriptions[subscription.ID] = cloneSubscription(subscription)
	return nil
}

type paymentRepository struct {
	s  *Store
	tx *txStore
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	if r.tx != nil {
		r.tx.payments = append(r.tx.payments, clonePayment(payment))
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments = append(r.s.payments, clonePayment(payment))
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.payments {
		if p.ID == id {
			return clonePayment(p), nil
		}
	}
	return nil, nil
}

func (r *paymentRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Payment
	// Newest first; later appends win ties.
	for i := len(r.s.payments) - 1; i >= 0; i-- {
		if p := r.s.payments[i]; p.UserID == userID {
			out = append(out, clonePayment(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clonePlan(p *model.Plan) *model.Plan {
	if p == nil {
		return nil
	}
	c := *p
	if p.Features != nil {
		c.Features = append(model.Features(nil), p.Features...)
	}
	if p.MaxAccounts != nil {
		v := *p.MaxAccounts
		c.MaxAccounts = &v
	}
	if p.DailyBudgetCap != nil {
		v := *p.DailyBudgetCap
		c.DailyBudgetCap = &v
	}
	return &c
}

func cloneSubscription(s *model.Subscription) *model.Subscription {
	c := *s
	c.Plan = nil
	return &c
}

func clonePayment(p *model.Payment) *model.Payment {
	c := *p
	if p.SubscriptionID != nil {
		id := *p.SubscriptionID
		c.SubscriptionID = &id
	}
	if p.Metadata != nil {
		c.Metadata = make(model.JSONB, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
