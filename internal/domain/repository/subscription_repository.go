package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// SubscriptionRepository persists subscription state. All reconciliation
// writes go through Upsert so replayed and reordered provider events
// converge on the same row.
type SubscriptionRepository interface {
	// Upsert inserts the subscription or, when a row with the same
	// provider_subscription_id exists, overwrites that row's authoritative
	// field set in place.
	Upsert(ctx context.Context, sub *model.Subscription) error

	// GetByProviderID resolves a subscription by the provider's identifier.
	// Returns (nil, nil) when no row exists.
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*model.Subscription, error)

	// GetActive returns the user's active subscription for the given
	// workspace scope, or (nil, nil) when there is none.
	GetActive(ctx context.Context, userID uuid.UUID, workspaceID *uuid.UUID) (*model.Subscription, error)

	// CountTrialsUsed counts the user's subscriptions that ever carried a
	// trial start, regardless of current status.
	CountTrialsUsed(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateStatus transitions only the status (and canceled_at when
	// provided) of the row keyed by provider_subscription_id.
	UpdateStatus(ctx context.Context, providerSubscriptionID string, status model.SubscriptionStatus) error

	// UpdateCancelAtPeriodEnd mirrors a provider-side cancellation flag change.
	UpdateCancelAtPeriodEnd(ctx context.Context, providerSubscriptionID string, cancel bool) error
}
