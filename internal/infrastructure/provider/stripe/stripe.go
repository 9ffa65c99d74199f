package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
)

// StripeProvider implements BillingProvider against the Stripe API. The
// client is built once with its own HTTP timeout and retry budget and
// injected here; nothing touches the package-global stripe.Key.
type StripeProvider struct {
	client *client.API
	logger *zap.Logger
}

// Config holds the HTTP behavior of the Stripe client
type Config struct {
	SecretKey         string
	Timeout           time.Duration
	MaxNetworkRetries int64
}

// NewStripeProvider creates a new Stripe provider with a dedicated client
func NewStripeProvider(cfg Config, logger *zap.Logger) *StripeProvider {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
	})

	sc := client.New(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &StripeProvider{
		client: sc,
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return "stripe"
}

// CreateCustomer registers the user with Stripe. The internal user ID goes
// into customer metadata so support can trace a customer back.
func (s *StripeProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	if req.DisplayName != "" {
		params.Name = stripe.String(req.DisplayName)
	}

	customer, err := s.client.Customers.New(params)
	if err != nil {
		return "", s.wrapError("create customer", err)
	}

	s.logger.Info("Stripe customer created",
		zap.String("customer_id", customer.ID),
		zap.String("user_id", req.UserID))

	return customer.ID, nil
}

// CreateCheckoutSession opens a hosted subscription checkout. Metadata is
// set on both the session and the subscription it creates, so every event
// family downstream can attribute its object.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *provider.CreateCheckoutSessionRequest) (*provider.CheckoutSession, error) {
	subscriptionData := &stripe.CheckoutSessionSubscriptionDataParams{
		Metadata: req.Metadata,
	}
	if req.TrialDays > 0 {
		subscriptionData.TrialPeriodDays = stripe.Int64(req.TrialDays)
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:       stripe.String(req.SuccessURL),
		CancelURL:        stripe.String(req.CancelURL),
		SubscriptionData: subscriptionData,
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, s.wrapError("create checkout session", err)
	}

	return &provider.CheckoutSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// CreatePortalSession opens the hosted billing portal
func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := s.client.BillingPortalSessions.New(params)
	if err != nil {
		return "", s.wrapError("create portal session", err)
	}

	return session.URL, nil
}

// GetSubscription fetches and normalizes the authoritative subscription state
func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionState, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.client.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, s.wrapError("get subscription", err)
	}

	return normalizeSubscription(sub), nil
}

// SetCancelAtPeriodEnd flips the cancellation flag and returns the updated
// state
func (s *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*provider.SubscriptionState, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := s.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, s.wrapError("update subscription", err)
	}

	return normalizeSubscription(sub), nil
}

// normalizeSubscription maps the SDK shape onto the provider-agnostic state.
// The SDK reports one period per subscription; it is mirrored onto each line
// item so period resolution works the same for fetched and parsed state.
func normalizeSubscription(sub *stripe.Subscription) *provider.SubscriptionState {
	state := &provider.SubscriptionState{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CanceledAt:        unixPtr(sub.CanceledAt),
		TrialStart:        unixPtr(sub.TrialStart),
		TrialEnd:          unixPtr(sub.TrialEnd),
		PeriodStart:       unix(sub.CurrentPeriodStart),
		PeriodEnd:         unix(sub.CurrentPeriodEnd),
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			si := provider.SubscriptionItem{
				PeriodStart: unix(sub.CurrentPeriodStart),
				PeriodEnd:   unix(sub.CurrentPeriodEnd),
			}
			if item.Price != nil {
				si.PriceID = item.Price.ID
			}
			state.Items = append(state.Items, si)
		}
	}
	return state
}

func (s *StripeProvider) wrapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		s.logger.Error("Stripe request failed",
			zap.String("operation", op),
			zap.String("code", string(stripeErr.Code)),
			zap.String("request_id", stripeErr.RequestID),
			zap.Error(err))
		return &provider.ProviderError{
			Code:    string(stripeErr.Code),
			Message: op + " failed",
			Details: stripeErr.Msg,
		}
	}

	s.logger.Error("Stripe request failed",
		zap.String("operation", op),
		zap.Error(err))
	return err
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
