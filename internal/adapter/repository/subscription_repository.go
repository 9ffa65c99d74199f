package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the full authoritative field set keyed by
// provider_subscription_id. Applying the same event twice, or an older event
// after a newer one, leaves the row exactly as the applied payload specifies,
// which is what makes the reconciler idempotent and order-tolerant.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.Subscription) error {
	if sub.ProviderSubscriptionID == nil || *sub.ProviderSubscriptionID == "" {
		return fmt.Errorf("subscription upsert requires a provider subscription ID")
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"workspace_id",
				"plan_id",
				"status",
				"cancel_at_period_end",
				"current_period_start",
				"current_period_end",
				"trial_start",
				"trial_end",
				"canceled_at",
				"provider_data",
				"updated_at",
			}),
		}).
		Create(sub).Error

	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.Stringp("provider_subscription_id", sub.ProviderSubscriptionID),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by provider ID",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetActive(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription

	query := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive)

	if workspaceID != nil {
		query = query.Where("workspace_id = ?", *workspaceID)
	} else {
		query = query.Where("workspace_id IS NULL")
	}

	err := query.First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get active subscription",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) CountTrialsUsed(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND trial_start IS NOT NULL", userID).
		Count(&count).Error

	if err != nil {
		r.logger.Error("Failed to count used trials",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count used trials: %w", err)
	}

	return count, nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, providerSubscriptionID string, status model.SubscriptionStatus) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if status == model.SubscriptionStatusCanceled {
		now := time.Now()
		updates["canceled_at"] = &now
	}

	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update subscription status",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription not found: %s", providerSubscriptionID)
	}

	return nil
}

func (r *subscriptionRepository) UpdateCancelAtPeriodEnd(ctx context.Context, providerSubscriptionID string, cancel bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Update("cancel_at_period_end", cancel)

	if result.Error != nil {
		r.logger.Error("Failed to update cancel_at_period_end",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Bool("cancel", cancel),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update cancellation flag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription not found: %s", providerSubscriptionID)
	}

	return nil
}
