package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// CustomerLinkRepository maps internal users to provider customer IDs.
// A link is created at most once per user and only ever populated, never
// deleted.
type CustomerLinkRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.CustomerLink, error)
	GetByProviderCustomerID(ctx context.Context, providerCustomerID string) (*model.CustomerLink, error)
	Create(ctx context.Context, link *model.CustomerLink) error

	// SetProviderCustomerID populates the provider side of an existing link.
	SetProviderCustomerID(ctx context.Context, userID uuid.UUID, providerCustomerID string) error

	// SetCurrentSubscription records (or clears, with nil) the user's
	// provider subscription linkage.
	SetCurrentSubscription(ctx context.Context, userID uuid.UUID, providerSubscriptionID *string) error
}
