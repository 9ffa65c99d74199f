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

func TestSubscriptionService_Cancel(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	subID := "sub_900"

	t.Run("flags cancellation at provider then locally", func(t *testing.T) {
		subs := new(MockSubscriptionRepository)
		payments := new(MockPaymentRepository)
		billing := new(MockBillingProvider)
		svc := usecase.NewSubscriptionService(subs, payments, billing, zap.NewNop())

		subs.On("GetActive", ctx, userID, (*uuid.UUID)(nil)).Return(&model.Subscription{
			ID:                     4,
			UserID:                 userID,
			Status:                 model.SubscriptionStatusActive,
			ProviderSubscriptionID: &subID,
		}, nil)
		billing.On("SetCancelAtPeriodEnd", ctx, subID, true).Return(&provider.SubscriptionState{
			ID:                subID,
			Status:            "active",
			CancelAtPeriodEnd: true,
		}, nil)
		subs.On("UpdateCancelAtPeriodEnd", ctx, subID, true).Return(nil)

		sub, err := svc.Cancel(ctx, userID, nil)

		assert.NoError(t, err)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
		subs.AssertExpectations(t)
		billing.AssertExpectations(t)
	})

	t.Run("no active subscription to cancel", func(t *testing.T) {
		subs := new(MockSubscriptionRepository)
		payments := new(MockPaymentRepository)
		billing := new(MockBillingProvider)
		svc := usecase.NewSubscriptionService(subs, payments, billing, zap.NewNop())

		subs.On("GetActive", ctx, userID, (*uuid.UUID)(nil)).Return(nil, nil)

		_, err := svc.Cancel(ctx, userID, nil)

		assert.ErrorIs(t, err, domainErrors.ErrSubscriptionNotFound)
		billing.AssertNotCalled(t, "SetCancelAtPeriodEnd", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("local flag is not touched when the provider call fails", func(t *testing.T) {
		subs := new(MockSubscriptionRepository)
		payments := new(MockPaymentRepository)
		billing := new(MockBillingProvider)
		svc := usecase.NewSubscriptionService(subs, payments, billing, zap.NewNop())

		subs.On("GetActive", ctx, userID, (*uuid.UUID)(nil)).Return(&model.Subscription{
			ID:                     4,
			UserID:                 userID,
			Status:                 model.SubscriptionStatusActive,
			ProviderSubscriptionID: &subID,
		}, nil)
		billing.On("SetCancelAtPeriodEnd", ctx, subID, true).Return(nil, assert.AnError)

		_, err := svc.Cancel(ctx, userID, nil)

		assert.Error(t, err)
		subs.AssertNotCalled(t, "UpdateCancelAtPeriodEnd", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubscriptionService_Reactivate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	subID := "sub_901"

	subs := new(MockSubscriptionRepository)
	payments := new(MockPaymentRepository)
	billing := new(MockBillingProvider)
	svc := usecase.NewSubscriptionService(subs, payments, billing, zap.NewNop())

	subs.On("GetActive", ctx, userID, (*uuid.UUID)(nil)).Return(&model.Subscription{
		ID:                     5,
		UserID:                 userID,
		Status:                 model.SubscriptionStatusActive,
		CancelAtPeriodEnd:      true,
		ProviderSubscriptionID: &subID,
	}, nil)
	billing.On("SetCancelAtPeriodEnd", ctx, subID, false).Return(&provider.SubscriptionState{
		ID:                subID,
		Status:            "active",
		CancelAtPeriodEnd: false,
	}, nil)
	subs.On("UpdateCancelAtPeriodEnd", ctx, subID, false).Return(nil)

	sub, err := svc.Reactivate(ctx, userID, nil)

	assert.NoError(t, err)
	assert.False(t, sub.CancelAtPeriodEnd)
	billing.AssertExpectations(t)
}
