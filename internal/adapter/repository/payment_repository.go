package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a payment record
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	err := r.db.WithContext(ctx).Create(payment).Error
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("user_id", payment.UserID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("user_id", payment.UserID),
		zap.String("amount", payment.Amount.String()))

	return nil
}

// GetByID retrieves a payment by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment",
			zap.String("payment_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// ListByUserID retrieves the user's most recent payments. A limit of zero
// or less returns them all.
func (r *paymentRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&payments).Error

	if err != nil {
		r.logger.Error("Failed to list payments",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
