package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

// SubscriptionService serves subscription reads and the cancel/reactivate
// flow. Cancellation is always at period end; the user keeps entitlements
// until the provider reports the actual transition.
type SubscriptionService struct {
	subscriptions domainRepo.SubscriptionRepository
	payments      domainRepo.PaymentRepository
	provider      provider.BillingProvider
	logger        *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptions domainRepo.SubscriptionRepository,
	payments domainRepo.PaymentRepository,
	billingProvider provider.BillingProvider,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		payments:      payments,
		provider:      billingProvider,
		logger:        logger,
	}
}

// GetUserSubscription returns the user's active subscription for the given
// workspace scope, or (nil, nil) when the user is on the free tier
func (s *SubscriptionService) GetUserSubscription(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (*model.Subscription, error) {
	return s.subscriptions.GetActive(ctx, userID, workspaceID)
}

// Cancel schedules cancellation at the end of the current period. The
// provider is updated first; the local flag mirrors the provider's answer.
func (s *SubscriptionService) Cancel(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (*model.Subscription, error) {
	return s.setCancelFlag(ctx, userID, workspaceID, true)
}

// Reactivate clears a pending cancellation before the period ends
func (s *SubscriptionService) Reactivate(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (*model.Subscription, error) {
	return s.setCancelFlag(ctx, userID, workspaceID, false)
}

func (s *SubscriptionService) setCancelFlag(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID, cancel bool) (*model.Subscription, error) {
	sub, err := s.subscriptions.GetActive(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: user %s", domainErrors.ErrSubscriptionNotFound, userID)
	}
	if sub.ProviderSubscriptionID == nil || *sub.ProviderSubscriptionID == "" {
		return nil, fmt.Errorf("%w: subscription %d has no provider reference",
			domainErrors.ErrSubscriptionNotFound, sub.ID)
	}

	state, err := s.provider.SetCancelAtPeriodEnd(ctx, *sub.ProviderSubscriptionID, cancel)
	if err != nil {
		s.logger.Error("Failed to update cancellation flag at provider",
			zap.String("subscription_id", *sub.ProviderSubscriptionID),
			zap.Bool("cancel", cancel),
			zap.Error(err))
		return nil, fmt.Errorf("update cancellation flag: %w", err)
	}

	if err := s.subscriptions.UpdateCancelAtPeriodEnd(ctx, *sub.ProviderSubscriptionID, state.CancelAtPeriodEnd); err != nil {
		return nil, err
	}
	sub.CancelAtPeriodEnd = state.CancelAtPeriodEnd

	s.logger.Info("Cancellation flag updated",
		zap.String("subscription_id", *sub.ProviderSubscriptionID),
		zap.String("user_id", userID.String()),
		zap.Bool("cancel_at_period_end", state.CancelAtPeriodEnd))

	return sub, nil
}

// ListPayments returns the user's most recent ledger rows
func (s *SubscriptionService) ListPayments(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.payments.ListByUser(ctx, userID, limit)
}
