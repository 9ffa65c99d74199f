package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

// CheckoutService builds provider checkout and portal sessions. Customer
// creation is lazy and idempotent: the first checkout for a user creates the
// provider customer and records the mapping, later checkouts reuse it.
type CheckoutService struct {
	plans         *PlanCatalog
	customers     domainRepo.CustomerLinkRepository
	subscriptions domainRepo.SubscriptionRepository
	provider      provider.BillingProvider
	logger        *zap.Logger
	clientURL     string
	trialDays     int64
	now           func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	plans *PlanCatalog,
	customers domainRepo.CustomerLinkRepository,
	subscriptions domainRepo.SubscriptionRepository,
	billingProvider provider.BillingProvider,
	logger *zap.Logger,
	clientURL string,
	trialDays int64,
) *CheckoutService {
	return &CheckoutService{
		plans:         plans,
		customers:     customers,
		subscriptions: subscriptions,
		provider:      billingProvider,
		logger:        logger,
		clientURL:     clientURL,
		trialDays:     trialDays,
		now:           time.Now,
	}
}

// CreateCheckoutSessionInput carries the caller's checkout intent.
// SuccessURL and CancelURL override the client-URL defaults when set.
type CreateCheckoutSessionInput struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
	Tier        string
	Interval    string
	WorkspaceID *uuid.UUID
	SuccessURL  string
	CancelURL   string
}

// CreateCheckoutSession resolves the plan, ensures a provider customer
// exists for the user, and opens a checkout session carrying the metadata
// the reconciler needs to attribute the resulting subscription.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, input CreateCheckoutSessionInput) (*provider.CheckoutSession, error) {
	plan, err := s.plans.ResolveTierInterval(ctx, input.Tier, input.Interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s", domainErrors.ErrInvalidPlan, input.Tier, input.Interval)
	}

	customerID, err := s.ensureCustomer(ctx, input.UserID, input.Email, input.DisplayName)
	if err != nil {
		return nil, err
	}

	trialDays, err := s.trialEligibility(ctx, input.UserID, input.WorkspaceID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"userId":  input.UserID.String(),
		"priceId": plan.ProviderPriceID,
	}
	if input.WorkspaceID != nil {
		metadata["workspaceId"] = input.WorkspaceID.String()
	}

	successURL := input.SuccessURL
	if successURL == "" {
		successURL = s.clientURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := input.CancelURL
	if cancelURL == "" {
		cancelURL = s.clientURL + "/billing/cancel"
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &provider.CreateCheckoutSessionRequest{
		CustomerID:     customerID,
		PriceID:        plan.ProviderPriceID,
		SuccessURL:     successURL,
		CancelURL:      cancelURL,
		TrialDays:      trialDays,
		IdempotencyKey: s.idempotencyKey(input.UserID, plan.ProviderPriceID),
		Metadata:       metadata,
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("user_id", input.UserID.String()),
			zap.String("price_id", plan.ProviderPriceID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrCheckoutCreationFailed, err)
	}

	if session.RedirectURL == "" {
		s.logger.Error("Provider returned session without redirect URL",
			zap.String("session_id", session.SessionID))
		return nil, fmt.Errorf("%w: session %s has no redirect URL",
			domainErrors.ErrCheckoutCreationFailed, session.SessionID)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", session.SessionID),
		zap.String("user_id", input.UserID.String()),
		zap.String("plan", plan.Code),
		zap.Int64("trial_days", trialDays))

	return session, nil
}

// CreatePortalSession opens the provider's self-service billing portal for
// an existing customer
func (s *CheckoutService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	link, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if link == nil || link.ProviderCustomerID == nil || *link.ProviderCustomerID == "" {
		return "", fmt.Errorf("%w: user %s has no billing customer",
			domainErrors.ErrCustomerNotFound, userID)
	}

	url, err := s.provider.CreatePortalSession(ctx, *link.ProviderCustomerID, s.clientURL+"/settings/billing")
	if err != nil {
		s.logger.Error("Failed to create portal session",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", domainErrors.ErrPortalCreationFailed, err)
	}

	return url, nil
}

// ensureCustomer returns the provider customer ID for the user, creating the
// customer and the local link on first use. Link creation is an insert with
// conflict-ignore, so two concurrent checkouts settle on one mapping.
func (s *CheckoutService) ensureCustomer(ctx context.Context, userID uuid.UUID, email, displayName string) (string, error) {
	link, err := s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}

	if link != nil && link.ProviderCustomerID != nil && *link.ProviderCustomerID != "" {
		return *link.ProviderCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, &provider.CreateCustomerRequest{
		UserID:      userID.String(),
		Email:       email,
		DisplayName: displayName,
	})
	if err != nil {
		s.logger.Error("Failed to create provider customer",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return "", fmt.Errorf("create provider customer: %w", err)
	}

	if link == nil {
		if err := s.customers.Create(ctx, &model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
			Email:              email,
		}); err != nil {
			return "", err
		}
	} else {
		if err := s.customers.SetProviderCustomerID(ctx, userID, customerID); err != nil {
			return "", err
		}
	}

	// Another request may have won the race; the stored mapping is the one
	// the reconciler will see, so prefer it.
	link, err = s.customers.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if link != nil && link.ProviderCustomerID != nil && *link.ProviderCustomerID != "" {
		return *link.ProviderCustomerID, nil
	}

	return customerID, nil
}

// trialEligibility grants the configured trial only to users who have never
// trialed before and hold no active subscription
func (s *CheckoutService) trialEligibility(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (int64, error) {
	if s.trialDays <= 0 {
		return 0, nil
	}

	used, err := s.subscriptions.CountTrialsUsed(ctx, userID)
	if err != nil {
		return 0, err
	}
	if used > 0 {
		return 0, nil
	}

	active, err := s.subscriptions.GetActive(ctx, userID, workspaceID)
	if err != nil {
		return 0, err
	}
	if active != nil {
		return 0, nil
	}

	return s.trialDays, nil
}

// idempotencyKey derives a stable key for one user/price/second so that a
// double-submitted checkout form produces one provider session
func (s *CheckoutService) idempotencyKey(userID uuid.UUID, priceID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", userID, priceID, s.now().Unix())))
	return hex.EncodeToString(sum[:])
}
