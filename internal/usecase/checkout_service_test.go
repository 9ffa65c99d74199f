package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type checkoutMocks struct {
	plans     *MockPlanRepository
	customers *MockCustomerLinkRepository
	subs      *MockSubscriptionRepository
	provider  *MockBillingProvider
}

func newCheckoutService(t *testing.T, trialDays int64) (*usecase.CheckoutService, *checkoutMocks) {
	t.Helper()
	m := &checkoutMocks{
		plans:     new(MockPlanRepository),
		customers: new(MockCustomerLinkRepository),
		subs:      new(MockSubscriptionRepository),
		provider:  new(MockBillingProvider),
	}
	logger := zap.NewNop()
	catalog := usecase.NewPlanCatalog(m.plans, logger)
	svc := usecase.NewCheckoutService(catalog, m.customers, m.subs, m.provider, logger, "https://app.example.com", trialDays)
	return svc, m
}

func TestCheckoutService_CreateCheckoutSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	customerID := "cus_abc"

	input := usecase.CreateCheckoutSessionInput{
		UserID:   userID,
		Email:    "researcher@example.com",
		Tier:     model.TierPro,
		Interval: model.IntervalMonthly,
	}

	t.Run("reuses existing customer and grants first trial", func(t *testing.T) {
		svc, m := newCheckoutService(t, 14)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.subs.On("CountTrialsUsed", ctx, userID).Return(int64(0), nil)
		m.subs.On("GetActive", ctx, userID, (*uuid.UUID)(nil)).Return(nil, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.CustomerID == customerID &&
				req.PriceID == "price_pro_m" &&
				req.TrialDays == 14 &&
				req.IdempotencyKey != "" &&
				req.Metadata["userId"] == userID.String() &&
				req.Metadata["priceId"] == "price_pro_m"
		})).Return(&provider.CheckoutSession{
			SessionID:   "cs_123",
			RedirectURL: "https://billing.example.com/cs_123",
		}, nil)

		session, err := svc.CreateCheckoutSession(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "cs_123", session.SessionID)
		assert.Equal(t, "https://billing.example.com/cs_123", session.RedirectURL)
		m.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
		m.provider.AssertExpectations(t)
	})

	t.Run("creates customer lazily on first checkout", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		link := &model.CustomerLink{UserID: userID, ProviderCustomerID: &customerID, Email: input.Email}
		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(nil, nil).Once()
		m.provider.On("CreateCustomer", ctx, mock.MatchedBy(func(req *provider.CreateCustomerRequest) bool {
			return req.UserID == userID.String() && req.Email == input.Email
		})).Return(customerID, nil)
		m.customers.On("Create", ctx, mock.MatchedBy(func(l *model.CustomerLink) bool {
			return l.UserID == userID && l.ProviderCustomerID != nil && *l.ProviderCustomerID == customerID
		})).Return(nil)
		m.customers.On("GetByUserID", ctx, userID).Return(link, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(&provider.CheckoutSession{
			SessionID:   "cs_124",
			RedirectURL: "https://billing.example.com/cs_124",
		}, nil)

		session, err := svc.CreateCheckoutSession(ctx, input)

		assert.NoError(t, err)
		assert.NotNil(t, session)
		m.customers.AssertExpectations(t)
		m.provider.AssertExpectations(t)
	})

	t.Run("no trial after one was used", func(t *testing.T) {
		svc, m := newCheckoutService(t, 14)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.subs.On("CountTrialsUsed", ctx, userID).Return(int64(1), nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.TrialDays == 0
		})).Return(&provider.CheckoutSession{
			SessionID:   "cs_125",
			RedirectURL: "https://billing.example.com/cs_125",
		}, nil)

		_, err := svc.CreateCheckoutSession(ctx, input)

		assert.NoError(t, err)
		m.provider.AssertExpectations(t)
	})

	t.Run("unknown tier is rejected", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.plans.On("GetByTierInterval", ctx, "ENTERPRISE", model.IntervalMonthly).Return(nil, nil)

		_, err := svc.CreateCheckoutSession(ctx, usecase.CreateCheckoutSessionInput{
			UserID:   userID,
			Tier:     "ENTERPRISE",
			Interval: model.IntervalMonthly,
		})

		assert.ErrorIs(t, err, domainErrors.ErrInvalidPlan)
		m.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("session without redirect URL is an error", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(&provider.CheckoutSession{
			SessionID: "cs_126",
		}, nil)

		_, err := svc.CreateCheckoutSession(ctx, input)

		assert.ErrorIs(t, err, domainErrors.ErrCheckoutCreationFailed)
	})

	t.Run("display name reaches the provider customer", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(nil, nil).Once()
		m.provider.On("CreateCustomer", ctx, mock.MatchedBy(func(req *provider.CreateCustomerRequest) bool {
			return req.Email == input.Email && req.DisplayName == "Dr. Ada Lovelace"
		})).Return(customerID, nil)
		m.customers.On("Create", ctx, mock.Anything).Return(nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(&provider.CheckoutSession{
			SessionID:   "cs_128",
			RedirectURL: "https://billing.example.com/cs_128",
		}, nil)

		named := input
		named.DisplayName = "Dr. Ada Lovelace"
		_, err := svc.CreateCheckoutSession(ctx, named)

		assert.NoError(t, err)
		m.provider.AssertExpectations(t)
	})

	t.Run("caller URLs override the client defaults", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.SuccessURL == "https://workspace.example.com/done" &&
				req.CancelURL == "https://workspace.example.com/back"
		})).Return(&provider.CheckoutSession{
			SessionID:   "cs_129",
			RedirectURL: "https://billing.example.com/cs_129",
		}, nil)

		custom := input
		custom.SuccessURL = "https://workspace.example.com/done"
		custom.CancelURL = "https://workspace.example.com/back"
		_, err := svc.CreateCheckoutSession(ctx, custom)

		assert.NoError(t, err)
		m.provider.AssertExpectations(t)
	})

	t.Run("empty URLs fall back to the client URL", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.plans.On("GetByTierInterval", ctx, model.TierPro, model.IntervalMonthly).Return(proPlan(), nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.SuccessURL == "https://app.example.com/billing/success?session_id={CHECKOUT_SESSION_ID}" &&
				req.CancelURL == "https://app.example.com/billing/cancel"
		})).Return(&provider.CheckoutSession{
			SessionID:   "cs_130",
			RedirectURL: "https://billing.example.com/cs_130",
		}, nil)

		_, err := svc.CreateCheckoutSession(ctx, input)

		assert.NoError(t, err)
		m.provider.AssertExpectations(t)
	})

	t.Run("workspace checkout carries workspaceId metadata", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)
		workspaceID := uuid.New()

		m.plans.On("GetByTierInterval", ctx, model.TierTeam, model.IntervalYearly).Return(&model.Plan{
			ID:              2,
			Code:            "team_yearly",
			Tier:            model.TierTeam,
			Interval:        model.IntervalYearly,
			ProviderPriceID: "price_team_y",
			Role:            model.RoleTeamLead,
		}, nil)
		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(req *provider.CreateCheckoutSessionRequest) bool {
			return req.Metadata["workspaceId"] == workspaceID.String() &&
				req.PriceID == "price_team_y"
		})).Return(&provider.CheckoutSession{
			SessionID:   "cs_127",
			RedirectURL: "https://billing.example.com/cs_127",
		}, nil)

		_, err := svc.CreateCheckoutSession(ctx, usecase.CreateCheckoutSessionInput{
			UserID:      userID,
			Tier:        model.TierTeam,
			Interval:    model.IntervalYearly,
			WorkspaceID: &workspaceID,
		})

		assert.NoError(t, err)
		m.provider.AssertExpectations(t)
	})
}

func TestCheckoutService_CreatePortalSession(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	customerID := "cus_abc"

	t.Run("opens portal for linked customer", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.customers.On("GetByUserID", ctx, userID).Return(&model.CustomerLink{
			UserID:             userID,
			ProviderCustomerID: &customerID,
		}, nil)
		m.provider.On("CreatePortalSession", ctx, customerID, "https://app.example.com/settings/billing").
			Return("https://billing.example.com/portal/xyz", nil)

		url, err := svc.CreatePortalSession(ctx, userID)

		assert.NoError(t, err)
		assert.Equal(t, "https://billing.example.com/portal/xyz", url)
	})

	t.Run("user without billing customer is rejected", func(t *testing.T) {
		svc, m := newCheckoutService(t, 0)

		m.customers.On("GetByUserID", ctx, userID).Return(nil, nil)

		_, err := svc.CreatePortalSession(ctx, userID)

		assert.ErrorIs(t, err, domainErrors.ErrCustomerNotFound)
		m.provider.AssertNotCalled(t, "CreatePortalSession", mock.Anything, mock.Anything, mock.Anything)
	})
}
