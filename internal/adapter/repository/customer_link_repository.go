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

type customerLinkRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCustomerLinkRepository creates a new customer link repository
func NewCustomerLinkRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CustomerLinkRepository {
	return &customerLinkRepository{
		db:     db,
		logger: logger,
	}
}

func (r *customerLinkRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerLink, error) {
	var link model.CustomerLink

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&link).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer link by user ID",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer link: %w", err)
	}

	return &link, nil
}

func (r *customerLinkRepository) GetByProviderCustomerID(ctx context.Context, providerCustomerID string) (*model.CustomerLink, error) {
	var link model.CustomerLink

	err := r.db.WithContext(ctx).
		Where("provider_customer_id = ?", providerCustomerID).
		First(&link).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer link by provider customer ID",
			zap.String("provider_customer_id", providerCustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer link: %w", err)
	}

	return &link, nil
}

// Create inserts the link; the unique constraint on user_id guarantees at
// most one link per user even when two first-billing requests race.
func (r *customerLinkRepository) Create(ctx context.Context, link *model.CustomerLink) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(link).Error

	if err != nil {
		r.logger.Error("Failed to create customer link",
			zap.String("user_id", link.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create customer link: %w", err)
	}

	return nil
}

func (r *customerLinkRepository) SetProviderCustomerID(ctx context.Context, userID uuid.UUID, providerCustomerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomerLink{}).
		Where("user_id = ?", userID).
		Update("provider_customer_id", providerCustomerID)

	if result.Error != nil {
		r.logger.Error("Failed to set provider customer ID",
			zap.String("user_id", userID.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set provider customer ID: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("customer link not found for user: %s", userID)
	}

	return nil
}

func (r *customerLinkRepository) SetCurrentSubscription(ctx context.Context, userID uuid.UUID, providerSubscriptionID *string) error {
	err := r.db.WithContext(ctx).
		Model(&model.CustomerLink{}).
		Where("user_id = ?", userID).
		Update("current_subscription_id", providerSubscriptionID).Error

	if err != nil {
		r.logger.Error("Failed to update current subscription linkage",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription linkage: %w", err)
	}

	return nil
}
