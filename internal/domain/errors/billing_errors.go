package errors

import "errors"

var (
	// ErrPlanNotConfigured indicates a price ID or tier/interval pair with no
	// catalog entry. Resolution always fails closed: an unmapped price is
	// never treated as a default plan.
	ErrPlanNotConfigured = errors.New("plan not configured for requested price")

	// ErrInvalidPlan indicates a checkout request for a tier/interval the
	// catalog does not know about
	ErrInvalidPlan = errors.New("invalid plan selection")

	// ErrCustomerNotFound indicates the user has no provider customer yet;
	// they must initiate a checkout first
	ErrCustomerNotFound = errors.New("no provider customer found for user")

	// ErrSubscriptionNotFound indicates the referenced subscription does not
	// exist locally
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrCheckoutCreationFailed indicates the provider failed to produce a
	// usable checkout session; retryable by the user
	ErrCheckoutCreationFailed = errors.New("failed to create checkout session")

	// ErrPortalCreationFailed indicates the provider failed to produce a
	// billing portal session
	ErrPortalCreationFailed = errors.New("failed to create portal session")

	// ErrSignatureVerificationFailed is the only webhook failure answered
	// with a non-2xx status; the event is never stored
	ErrSignatureVerificationFailed = errors.New("webhook signature verification failed")

	// ErrMissingMetadata indicates a checkout-completion event without the
	// userId/priceId metadata required for reconciliation; non-retryable
	ErrMissingMetadata = errors.New("event missing required subscription metadata")

	// ErrMissingPeriodEnd indicates a confirmed subscription without a
	// billing period end; non-retryable, nothing downstream can bill it
	ErrMissingPeriodEnd = errors.New("subscription event missing period end")

	// ErrWebhookProcessingFailed wraps handler-level failures recorded on the
	// event ledger while the delivery is still acknowledged
	ErrWebhookProcessingFailed = errors.New("webhook processing failed")
)
