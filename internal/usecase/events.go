package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
)

// Event type constants as the provider emits them
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	eventInvoicePaid         = "invoice.paid"
	eventInvoicePaymentOK    = "invoice.payment_succeeded"
	eventInvoicePaymentFail  = "invoice.payment_failed"
)

// providerRef handles the provider's expandable references, which arrive
// either as a bare ID string or as a full object.
type providerRef struct {
	ID string
}

func (r *providerRef) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

// checkoutSessionPayload is the parsed body of a checkout.session.completed
// event
type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	PaymentStatus string            `json:"payment_status"`
	Customer      providerRef       `json:"customer"`
	Subscription  providerRef       `json:"subscription"`
	Metadata      map[string]string `json:"metadata"`
}

func parseCheckoutSession(data json.RawMessage) (*checkoutSessionPayload, error) {
	var session checkoutSessionPayload
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("malformed checkout session payload: %w", err)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("checkout session payload has no id")
	}
	return &session, nil
}

type subscriptionItemPayload struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           providerRef       `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         int64             `json:"canceled_at"`
	TrialStart         int64             `json:"trial_start"`
	TrialEnd           int64             `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []subscriptionItemPayload `json:"data"`
	} `json:"items"`
}

// parseSubscription normalizes a customer.subscription.* payload. Period
// bounds live per line item on newer provider API versions and at the top
// level on older ones; both shapes map into the same SubscriptionState.
func parseSubscription(data json.RawMessage) (*provider.SubscriptionState, error) {
	var payload subscriptionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed subscription payload: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("subscription payload has no id")
	}

	state := &provider.SubscriptionState{
		ID:                payload.ID,
		CustomerID:        payload.Customer.ID,
		Status:            payload.Status,
		CancelAtPeriodEnd: payload.CancelAtPeriodEnd,
		CanceledAt:        unixTimePtr(payload.CanceledAt),
		TrialStart:        unixTimePtr(payload.TrialStart),
		TrialEnd:          unixTimePtr(payload.TrialEnd),
		PeriodStart:       unixTime(payload.CurrentPeriodStart),
		PeriodEnd:         unixTime(payload.CurrentPeriodEnd),
		Metadata:          payload.Metadata,
	}

	for _, item := range payload.Items.Data {
		state.Items = append(state.Items, provider.SubscriptionItem{
			PriceID:     item.Price.ID,
			PeriodStart: unixTime(item.CurrentPeriodStart),
			PeriodEnd:   unixTime(item.CurrentPeriodEnd),
		})
	}

	return state, nil
}

type invoiceLinePayload struct {
	Period struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	} `json:"period"`
}

type invoicePayload struct {
	ID            string      `json:"id"`
	Customer      providerRef `json:"customer"`
	Subscription  providerRef `json:"subscription"`
	PaymentIntent providerRef `json:"payment_intent"`
	Charge        providerRef `json:"charge"`
	AmountPaid    int64       `json:"amount_paid"`
	AmountDue     int64       `json:"amount_due"`
	Currency      string      `json:"currency"`
	Lines         struct {
		Data []invoiceLinePayload `json:"data"`
	} `json:"lines"`
}

func parseInvoice(data json.RawMessage) (*invoicePayload, error) {
	var invoice invoicePayload
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, fmt.Errorf("malformed invoice payload: %w", err)
	}
	if invoice.ID == "" {
		return nil, fmt.Errorf("invoice payload has no id")
	}
	return &invoice, nil
}

// TransactionID is the ledger idempotency key: the payment intent when
// present, else the charge, else the invoice itself.
func (p *invoicePayload) TransactionID() string {
	if p.PaymentIntent.ID != "" {
		return p.PaymentIntent.ID
	}
	if p.Charge.ID != "" {
		return p.Charge.ID
	}
	return p.ID
}

// LatestPeriodEnd returns the latest line-item period end, or the zero time
// when the invoice carries no period information
func (p *invoicePayload) LatestPeriodEnd() time.Time {
	var latest time.Time
	for _, line := range p.Lines.Data {
		if end := unixTime(line.Period.End); end.After(latest) {
			latest = end
		}
	}
	return latest
}

// CurrencyCode returns the invoice currency normalized to upper case
func (p *invoicePayload) CurrencyCode() string {
	if p.Currency == "" {
		return "USD"
	}
	return strings.ToUpper(p.Currency)
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixTimePtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
