package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert records the payment attempt keyed by transaction_id. A second
// delivery of the same transaction updates status, amount, and raw payload in
// place; a failed-then-succeeded sequence converges to the last delivery.
func (r *paymentRepository) Upsert(ctx context.Context, payment *model.Payment) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subscription_id",
				"amount_cents",
				"currency",
				"status",
				"raw",
				"paid_at",
				"updated_at",
			}),
		}).
		Create(payment).Error

	if err != nil {
		r.logger.Error("Failed to upsert payment",
			zap.String("transaction_id", payment.TransactionID),
			zap.String("user_id", payment.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to upsert payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment by transaction ID",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error) {
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
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
