package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// PlanRepository handles plan catalog storage. Rows are seeded or
// admin-managed; this service only reads and upserts them during seeding.
type PlanRepository interface {
	GetAll(ctx context.Context) ([]*model.Plan, error)
	GetByPriceID(ctx context.Context, priceID string) (*model.Plan, error)
	GetByTierInterval(ctx context.Context, tier, interval string) (*model.Plan, error)
	Upsert(ctx context.Context, plan *model.Plan) error
}

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves all active plans ordered for display
func (r *planRepository) GetAll(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&plans).Error

	if err != nil {
		r.logger.Error("Failed to get all plans", zap.Error(err))
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}

	return plans, nil
}

// GetByPriceID retrieves a plan by the provider's price ID
func (r *planRepository) GetByPriceID(ctx context.Context, priceID string) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("provider_price_id = ?", priceID).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan by price ID",
			zap.String("price_id", priceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// GetByTierInterval retrieves a plan by its tier and billing interval
func (r *planRepository) GetByTierInterval(ctx context.Context, tier, interval string) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("tier = ? AND interval = ? AND is_active = ?", tier, interval, true).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan by tier/interval",
			zap.String("tier", tier),
			zap.String("interval", interval),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// Upsert creates or updates a plan keyed by provider price ID
func (r *planRepository) Upsert(ctx context.Context, plan *model.Plan) error {
	existing, err := r.GetByPriceID(ctx, plan.ProviderPriceID)
	if err != nil {
		return err
	}

	if existing != nil {
		plan.ID = existing.ID
		err = r.db.WithContext(ctx).
			Model(&model.Plan{}).
			Where("provider_price_id = ?", plan.ProviderPriceID).
			Updates(plan).Error
	} else {
		err = r.db.WithContext(ctx).Create(plan).Error
	}

	if err != nil {
		r.logger.Error("Failed to upsert plan",
			zap.String("price_id", plan.ProviderPriceID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert plan: %w", err)
	}

	return nil
}
