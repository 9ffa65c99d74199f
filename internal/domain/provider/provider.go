package provider

import (
	"context"
	"time"
)

// BillingProvider abstracts the external payment processor. It is constructed
// once at process start and injected everywhere it is needed; there is no
// package-global client state.
type BillingProvider interface {
	// CreateCustomer registers the user with the provider and returns the
	// provider's customer identifier.
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (string, error)

	// CreateCheckoutSession requests a hosted checkout session. The
	// idempotency key makes client retries safe.
	CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CheckoutSession, error)

	// CreatePortalSession requests a hosted billing-portal session.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// GetSubscription fetches the authoritative subscription state from the
	// provider.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error)

	// SetCancelAtPeriodEnd flips the provider-side cancellation flag.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*SubscriptionState, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// CreateCustomerRequest carries the identity the provider should associate
// with the new customer.
type CreateCustomerRequest struct {
	UserID      string
	Email       string
	DisplayName string
}

// CreateCheckoutSessionRequest is a provider-agnostic checkout request.
// Metadata must carry userId and priceId so the completion event can be
// reconciled; a checkout event without them is unrecoverable.
type CreateCheckoutSessionRequest struct {
	CustomerID     string
	PriceID        string
	SuccessURL     string
	CancelURL      string
	TrialDays      int64
	IdempotencyKey string
	Metadata       map[string]string
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// SubscriptionState is the normalized view of a provider subscription. Both
// the webhook payload parsers and the outbound fetch map into it, so the
// reconciler has a single shape to apply.
type SubscriptionState struct {
	ID                string
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time
	TrialStart        *time.Time
	TrialEnd          *time.Time
	PeriodStart       time.Time
	PeriodEnd         time.Time
	Items             []SubscriptionItem
	Metadata          map[string]string
}

// SubscriptionItem is one line item of a provider subscription
type SubscriptionItem struct {
	PriceID     string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// LatestPeriodEnd returns the latest period end across all line items,
// falling back to the subscription-level bound when there are no items.
// The zero time means the provider never supplied a period end.
func (s *SubscriptionState) LatestPeriodEnd() time.Time {
	latest := s.PeriodEnd
	for _, item := range s.Items {
		if item.PeriodEnd.After(latest) {
			latest = item.PeriodEnd
		}
	}
	return latest
}

// LatestPeriodStart returns the period start belonging to the line item with
// the latest period end, falling back to the subscription-level bound.
func (s *SubscriptionState) LatestPeriodStart() time.Time {
	start := s.PeriodStart
	end := s.PeriodEnd
	for _, item := range s.Items {
		if item.PeriodEnd.After(end) {
			end = item.PeriodEnd
			start = item.PeriodStart
		}
	}
	return start
}

// ProviderError carries a provider-level failure with its upstream code
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
