package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/adapter/repository"
	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// PlanCatalog resolves catalog entries in both directions: provider price ID
// to plan, and tier/interval to plan. Every miss fails closed with
// ErrPlanNotConfigured so an unmapped price can never silently price a user
// onto a default plan. There is deliberately no fallback from a failed
// price-ID lookup to a tier/interval lookup: a price the catalog does not
// know means the catalog has drifted, and drift is an error.
type PlanCatalog struct {
	repo   repository.PlanRepository
	logger *zap.Logger
}

// NewPlanCatalog creates a new plan catalog
func NewPlanCatalog(repo repository.PlanRepository, logger *zap.Logger) *PlanCatalog {
	return &PlanCatalog{
		repo:   repo,
		logger: logger,
	}
}

// ResolvePriceID maps a provider price identifier to its catalog entry
func (c *PlanCatalog) ResolvePriceID(ctx context.Context, priceID string) (*model.Plan, error) {
	plan, err := c.repo.GetByPriceID(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		c.logger.Error("No plan configured for provider price",
			zap.String("price_id", priceID))
		return nil, fmt.Errorf("%w: price %s", domainErrors.ErrPlanNotConfigured, priceID)
	}
	return plan, nil
}

// ResolveTierInterval maps a tier/interval pair to its catalog entry
func (c *PlanCatalog) ResolveTierInterval(ctx context.Context, tier, interval string) (*model.Plan, error) {
	plan, err := c.repo.GetByTierInterval(ctx, tier, interval)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		c.logger.Error("No plan configured for tier/interval",
			zap.String("tier", tier),
			zap.String("interval", interval))
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrPlanNotConfigured, model.PlanCode(tier, interval))
	}
	return plan, nil
}

// List returns all active catalog entries for display
func (c *PlanCatalog) List(ctx context.Context) ([]*model.Plan, error) {
	return c.repo.GetAll(ctx)
}
