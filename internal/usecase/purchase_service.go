package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
)

// DefaultGatewayTimeout bounds a charge attempt when none is configured
const DefaultGatewayTimeout = 15 * time.Second

const eventPublishTimeout = 2 * time.Second

// recordTimeout bounds writing a charged purchase. The caller's cancellation
// does not apply once money has moved.
const recordTimeout = 10 * time.Second

// PurchaseErrorCode names a business failure of a purchase
type PurchaseErrorCode string

const (
	ErrorInvalidRequest       PurchaseErrorCode = "InvalidRequest"
	ErrorPlanNotFound         PurchaseErrorCode = "PlanNotFound"
	ErrorPackageAlreadyActive PurchaseErrorCode = "PackageAlreadyActive"
	ErrorPaymentFailed        PurchaseErrorCode = "PaymentFailed"
)

// PurchaseRequest asks to buy a package for an authenticated user
type PurchaseRequest struct {
	UserID        string               `json:"user_id" validate:"required"`
	PackageID     string               `json:"package_id" validate:"required"`
	PaymentMethod model.PaymentMethod  `json:"payment_method" validate:"required"`
	PaymentData   provider.PaymentData `json:"payment_data"`
}

// CurrentPackage describes the subscription that blocked a repurchase
type CurrentPackage struct {
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	EndDate time.Time       `json:"end_date"`
}

// PurchaseResult is either a success carrying the written rows or a
// business failure carrying an error code and a human-readable message.
type PurchaseResult struct {
	Success      bool                `json:"success"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
	Payment      *model.Payment      `json:"payment,omitempty"`
	RedirectURL  string              `json:"redirect_url,omitempty"`

	Error          PurchaseErrorCode `json:"error,omitempty"`
	Message        string            `json:"message,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	CurrentPackage *CurrentPackage   `json:"current_package,omitempty"`
}

// PaymentDataSanitizer strips sensitive values before payment data is stored
type PaymentDataSanitizer interface {
	Sanitize(data map[string]interface{}) map[string]interface{}
}

// EventPublisher announces completed purchases
type EventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event *PurchaseCompletedEvent) error
}

// PurchaseCompletedEvent is published after a purchase commits
type PurchaseCompletedEvent struct {
	UserID         string              `json:"user_id"`
	SubscriptionID string              `json:"subscription_id"`
	PaymentID      string              `json:"payment_id"`
	PlanID         string              `json:"plan_id"`
	PlanType       model.PlanType      `json:"plan_type"`
	Amount         decimal.Decimal     `json:"amount"`
	Currency       string              `json:"currency"`
	Method         model.PaymentMethod `json:"method"`
	TransactionID  string              `json:"transaction_id"`
	RedirectURL    string              `json:"redirect_url,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// PurchaseServiceConfig holds the optional collaborators of PurchaseService
type PurchaseServiceConfig struct {
	GatewayTimeout time.Duration
	Sanitizer      PaymentDataSanitizer
	Events         EventPublisher
}

// PurchaseService sequences plan resolution, the charge, the ledger update
// and the payment record. Subscriptions and payments are written only here.
type PurchaseService struct {
	store          repository.Store
	resolver       *PlanResolver
	ledger         *SubscriptionLedger
	gateways       *provider.Registry
	gatewayTimeout time.Duration
	sanitizer      PaymentDataSanitizer
	events         EventPublisher
	validate       *validator.Validate
	logger         *zap.Logger
}

func NewPurchaseService(
	store repository.Store,
	resolver *PlanResolver,
	ledger *SubscriptionLedger,
	gateways *provider.Registry,
	cfg PurchaseServiceConfig,
	logger *zap.Logger,
) *PurchaseService {
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})

	return &PurchaseService{
		store:          store,
		resolver:       resolver,
		ledger:         ledger,
		gateways:       gateways,
		gatewayTimeout: timeout,
		sanitizer:      cfg.Sanitizer,
		events:         cfg.Events,
		validate:       validate,
		logger:         logger,
	}
}

// Purchase buys a package. Business failures are returned as a result with
// Success false. The error return wraps errors.ErrUnavailable and is used
// only when the store or a gateway could not be reached.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if msg := s.validateRequest(req); msg != "" {
		return failure(ErrorInvalidRequest, msg), nil
	}

	gateway, ok := s.gateways.Get(req.PaymentMethod)
	if !ok {
		return failure(ErrorInvalidRequest, fmt.Sprintf("payment method %q is not supported", req.PaymentMethod)), nil
	}

	plan, err := s.resolver.Resolve(ctx, req.PackageID)
	if err != nil {
		var notFound *domainErrors.PlanNotFoundError
		if errors.As(err, &notFound) {
			return failure(ErrorPlanNotFound, fmt.Sprintf("Package %q was not found", notFound.Identifier)), nil
		}
		return nil, s.unavailable("resolve plan", req, err)
	}

	logger := s.logger.With(
		zap.String("user_id", req.UserID),
		zap.String("plan_id", plan.ID.String()),
		zap.String("plan_type", string(plan.Type)),
		zap.String("method", string(req.PaymentMethod)))

	// Read-only check so a same-type repurchase is rejected before charging.
	// The ledger repeats it under the user lock.
	current, err := s.store.Subscriptions().GetActiveByUserID(ctx, req.UserID)
	if err != nil {
		return nil, s.unavailable("load active subscription", req, err)
	}
	if current != nil && current.Plan != nil && current.Plan.Type == plan.Type {
		return alreadyActive(domainErrors.NewPackageAlreadyActiveError(current.Plan.Name, current.Plan.Price, current.EndDate)), nil
	}

	outcome, err := s.charge(ctx, gateway, plan, req.PaymentData)
	if err != nil {
		return nil, s.unavailable("charge", req, err)
	}
	if !outcome.Success {
		logger.Info("Charge failed", zap.String("reason", outcome.Reason))
		result := failure(ErrorPaymentFailed, "Payment failed: "+outcome.Reason)
		result.Reason = outcome.Reason
		return result, nil
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	var (
		subscription *model.Subscription
		payment      *model.Payment
	)
	err = s.store.WithUserLock(recordCtx, req.UserID, func(tx repository.Store) error {
		sub, err := s.ledger.ApplyPurchase(recordCtx, tx.Subscriptions(), req.UserID, plan, req.PaymentMethod)
		if err != nil {
			return err
		}

		p := s.newPayment(req, plan, sub, outcome)
		if err := tx.Payments().Create(recordCtx, p); err != nil {
			return err
		}

		subscription, payment = sub, p
		return nil
	})
	if err != nil {
		var active *domainErrors.PackageAlreadyActiveError
		if errors.As(err, &active) {
			logger.Error("Charge succeeded but package became active concurrently, manual refund required",
				zap.String("transaction_id", outcome.TransactionID))
			return alreadyActive(active), nil
		}
		logger.Error("Charge succeeded but purchase could not be recorded",
			zap.String("transaction_id", outcome.TransactionID),
			zap.Error(err))
		return nil, s.unavailable("record purchase", req, err)
	}

	logger.Info("Purchase completed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("transaction_id", outcome.TransactionID))

	s.publish(ctx, subscription, payment, plan, outcome)

	return &PurchaseResult{
		Success:      true,
		Subscription: subscription,
		Payment:      payment,
		RedirectURL:  outcome.RedirectURL,
	}, nil
}

func (s *PurchaseService) validateRequest(req PurchaseRequest) string {
	err := s.validate.Struct(req)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" is required")
	}
	return strings.Join(msgs, "; ")
}

// charge runs one bounded attempt. A deadline becomes a timeout failure.
func (s *PurchaseService) charge(ctx context.Context, gateway provider.Gateway, plan *model.Plan, data provider.PaymentData) (*provider.Outcome, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	outcome, err := gateway.AttemptCharge(chargeCtx, plan, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(chargeCtx.Err(), context.DeadlineExceeded) {
			return provider.Failed(provider.ReasonTimeout), nil
		}
		return nil, err
	}
	if outcome == nil {
		return nil, fmt.Errorf("gateway %s returned no outcome", gateway.Method())
	}
	return outcome, nil
}

func (s *PurchaseService) newPayment(req PurchaseRequest, plan *model.Plan, sub *model.Subscription, outcome *provider.Outcome) *model.Payment {
	var paymentData map[string]interface{} = req.PaymentData
	if s.sanitizer != nil {
		paymentData = s.sanitizer.Sanitize(paymentData)
	}

	metadata := model.JSONB{
		model.MetadataSubscriptionID: sub.ID.String(),
		model.MetadataTransactionID:  outcome.TransactionID,
		model.MetadataPaymentData:    paymentData,
		model.MetadataPlanType:       string(plan.Type),
	}
	if outcome.RedirectURL != "" {
		metadata[model.MetadataRedirectURL] = outcome.RedirectURL
	}

	subID := sub.ID
	return &model.Payment{
		UserID:         req.UserID,
		SubscriptionID: &subID,
		Type:           model.PaymentTypeDeposit,
		Status:         model.PaymentStatusCompleted,
		Method:         req.PaymentMethod,
		Amount:         plan.Price,
		Currency:       plan.Currency,
		Description:    fmt.Sprintf("Purchase of %s plan", plan.Name),
		TransactionID:  outcome.TransactionID,
		Metadata:       metadata,
	}
}

// publish is best effort; the purchase is already committed.
func (s *PurchaseService) publish(ctx context.Context, sub *model.Subscription, payment *model.Payment, plan *model.Plan, outcome *provider.Outcome) {
	if s.events == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	event := &PurchaseCompletedEvent{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID.String(),
		PaymentID:      payment.ID.String(),
		PlanID:         plan.ID.String(),
		PlanType:       plan.Type,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		Method:         payment.Method,
		TransactionID:  outcome.TransactionID,
		RedirectURL:    outcome.RedirectURL,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.events.PublishPurchaseCompleted(pubCtx, event); err != nil {
		s.logger.Warn("Failed to publish purchase event",
			zap.String("payment_id", event.PaymentID),
			zap.Error(err))
	}
}

func (s *PurchaseService) unavailable(step string, req PurchaseRequest, err error) error {
	s.logger.Error("Purchase failed",
		zap.String("step", step),
		zap.String("user_id", req.UserID),
		zap.String("package_id", req.PackageID),
		zap.Error(err))
	return fmt.Errorf("%w: %s: %w", domainErrors.ErrUnavailable, step, err)
}

func failure(code PurchaseErrorCode, message string) *PurchaseResult {
	return &PurchaseResult{Error: code, Message: message}
}

func alreadyActive(active *domainErrors.PackageAlreadyActiveError) *PurchaseResult {
	result := failure(ErrorPackageAlreadyActive,
		fmt.Sprintf("You already have an active %s package until %s", active.PlanName, active.EndDate.Format("2006-01-02")))
	result.CurrentPackage = &CurrentPackage{
		Name:    active.PlanName,
		Price:   active.Price,
		EndDate: active.EndDate,
	}
	return result
}
