package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	adapterRepo "github.com/Atik203/Scholar-Flow-sub001/internal/adapter/repository"
	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
	domainRepo "github.com/Atik203/Scholar-Flow-sub001/internal/domain/repository"
)

// Reconciler applies provider events to local subscription, payment, and role
// state. Every write is an upsert keyed by an immutable provider identifier,
// so replaying an event or applying events out of order converges to the
// state the applied payload describes.
type Reconciler struct {
	subscriptions domainRepo.SubscriptionRepository
	payments      domainRepo.PaymentRepository
	customers     domainRepo.CustomerLinkRepository
	roles         domainRepo.UserRoleRepository
	plans         *PlanCatalog
	provider      provider.BillingProvider
	webhooks      adapterRepo.WebhookRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(
	subscriptions domainRepo.SubscriptionRepository,
	payments domainRepo.PaymentRepository,
	customers domainRepo.CustomerLinkRepository,
	roles domainRepo.UserRoleRepository,
	plans *PlanCatalog,
	billingProvider provider.BillingProvider,
	webhooks adapterRepo.WebhookRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		subscriptions: subscriptions,
		payments:      payments,
		customers:     customers,
		roles:         roles,
		plans:         plans,
		provider:      billingProvider,
		webhooks:      webhooks,
		logger:        logger,
		now:           time.Now,
	}
}

// Dispatch routes one event body to its handler. Unknown event types are
// acknowledged without side effects.
func (r *Reconciler) Dispatch(ctx context.Context, eventType string, data json.RawMessage) error {
	switch eventType {
	case eventCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, data)
	case eventSubscriptionCreated, eventSubscriptionUpdated:
		return r.handleSubscriptionChange(ctx, data)
	case eventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, data)
	case eventInvoicePaid, eventInvoicePaymentOK:
		return r.handleInvoicePaid(ctx, data)
	case eventInvoicePaymentFail:
		return r.handleInvoicePaymentFailed(ctx, data)
	default:
		r.logger.Warn("Unhandled event type", zap.String("type", eventType))
		return nil
	}
}

// handleCheckoutCompleted confirms a checkout: it requires userId/priceId
// metadata (without them no reconciliation is possible), fetches the
// authoritative subscription from the provider, and upserts the local record
// and the user's role.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, data json.RawMessage) error {
	session, err := parseCheckoutSession(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrWebhookProcessingFailed, err)
	}

	if session.Mode != "" && session.Mode != "subscription" {
		r.logger.Info("Skipping non-subscription checkout session",
			zap.String("session_id", session.ID),
			zap.String("mode", session.Mode))
		return nil
	}

	userIDStr := session.Metadata["userId"]
	priceID := session.Metadata["priceId"]
	if userIDStr == "" || priceID == "" {
		r.logger.Error("Checkout session missing reconciliation metadata",
			zap.String("session_id", session.ID),
			zap.String("user_id", userIDStr),
			zap.String("price_id", priceID))
		return fmt.Errorf("%w: session %s", domainErrors.ErrMissingMetadata, session.ID)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("%w: invalid userId %q", domainErrors.ErrMissingMetadata, userIDStr)
	}

	plan, err := r.plans.ResolvePriceID(ctx, priceID)
	if err != nil {
		return err
	}

	if session.Subscription.ID == "" {
		return fmt.Errorf("%w: session %s has no subscription", domainErrors.ErrMissingMetadata, session.ID)
	}

	state, err := r.provider.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return fmt.Errorf("%w: fetch subscription %s: %v",
			domainErrors.ErrWebhookProcessingFailed, session.Subscription.ID, err)
	}

	periodEnd := state.LatestPeriodEnd()
	if periodEnd.IsZero() {
		r.logger.Error("Confirmed subscription has no period end",
			zap.String("subscription_id", state.ID))
		return fmt.Errorf("%w: subscription %s", domainErrors.ErrMissingPeriodEnd, state.ID)
	}

	var workspaceID *uuid.UUID
	if ws := session.Metadata["workspaceId"]; ws != "" {
		parsed, err := uuid.Parse(ws)
		if err != nil {
			return fmt.Errorf("%w: invalid workspaceId %q", domainErrors.ErrMissingMetadata, ws)
		}
		workspaceID = &parsed
	}

	status, err := mapProviderStatus(state.Status)
	if err != nil {
		return err
	}

	sub := &model.Subscription{
		UserID:                 userID,
		WorkspaceID:            workspaceID,
		PlanID:                 &plan.ID,
		Status:                 status,
		ProviderSubscriptionID: &state.ID,
		CancelAtPeriodEnd:      state.CancelAtPeriodEnd,
		CurrentPeriodStart:     state.LatestPeriodStart(),
		CurrentPeriodEnd:       periodEnd,
		TrialStart:             state.TrialStart,
		TrialEnd:               state.TrialEnd,
		CanceledAt:             state.CanceledAt,
		ProviderData:           rawToJSONB(data),
	}

	if err := r.subscriptions.Upsert(ctx, sub); err != nil {
		return err
	}

	// Role follows the plan unconditionally on the checkout path.
	if err := r.roles.SetRole(ctx, userID, plan.Role); err != nil {
		return err
	}

	if err := r.customers.SetCurrentSubscription(ctx, userID, &state.ID); err != nil {
		r.logger.Warn("Failed to record subscription linkage",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	r.logger.Info("Checkout session reconciled",
		zap.String("session_id", session.ID),
		zap.String("subscription_id", state.ID),
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.Code),
		zap.Time("period_end", periodEnd))

	return nil
}

// handleSubscriptionChange applies created/updated events with the same
// upsert discipline. The role is touched only when the mapped status is
// active; a past-due or incomplete subscription must not move the user's
// role in either direction.
func (r *Reconciler) handleSubscriptionChange(ctx context.Context, data json.RawMessage) error {
	state, err := parseSubscription(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrWebhookProcessingFailed, err)
	}

	userID, workspaceID, err := r.resolveOwner(ctx, state)
	if err != nil {
		return err
	}

	if len(state.Items) == 0 || state.Items[0].PriceID == "" {
		return fmt.Errorf("%w: subscription %s has no priced items",
			domainErrors.ErrWebhookProcessingFailed, state.ID)
	}

	plan, err := r.plans.ResolvePriceID(ctx, state.Items[0].PriceID)
	if err != nil {
		return err
	}

	periodEnd := state.LatestPeriodEnd()
	if periodEnd.IsZero() {
		return fmt.Errorf("%w: subscription %s has no period end",
			domainErrors.ErrWebhookProcessingFailed, state.ID)
	}

	status, err := mapProviderStatus(state.Status)
	if err != nil {
		return err
	}

	sub := &model.Subscription{
		UserID:                 userID,
		WorkspaceID:            workspaceID,
		PlanID:                 &plan.ID,
		Status:                 status,
		ProviderSubscriptionID: &state.ID,
		CancelAtPeriodEnd:      state.CancelAtPeriodEnd,
		CurrentPeriodStart:     state.LatestPeriodStart(),
		CurrentPeriodEnd:       periodEnd,
		TrialStart:             state.TrialStart,
		TrialEnd:               state.TrialEnd,
		CanceledAt:             state.CanceledAt,
		ProviderData:           rawToJSONB(data),
	}

	if err := r.subscriptions.Upsert(ctx, sub); err != nil {
		return err
	}

	if status == model.SubscriptionStatusActive {
		if err := r.roles.SetRole(ctx, userID, plan.Role); err != nil {
			return err
		}
		if err := r.customers.SetCurrentSubscription(ctx, userID, &state.ID); err != nil {
			r.logger.Warn("Failed to record subscription linkage",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}

	r.logger.Info("Subscription reconciled",
		zap.String("subscription_id", state.ID),
		zap.String("user_id", userID.String()),
		zap.String("status", string(status)),
		zap.Time("period_end", periodEnd))

	return nil
}

// handleSubscriptionDeleted is the one transition that overrides role
// regardless of current state: provider cancellation is authoritative.
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, data json.RawMessage) error {
	state, err := parseSubscription(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrWebhookProcessingFailed, err)
	}

	existing, err := r.subscriptions.GetByProviderID(ctx, state.ID)
	if err != nil {
		return err
	}

	var userID uuid.UUID
	if existing != nil {
		if err := r.subscriptions.UpdateStatus(ctx, state.ID, model.SubscriptionStatusCanceled); err != nil {
			return err
		}
		userID = existing.UserID
	} else {
		link, err := r.customers.GetByProviderCustomerID(ctx, state.CustomerID)
		if err != nil {
			return err
		}
		if link == nil {
			r.logger.Warn("Deletion event for unknown subscription and customer, dropping",
				zap.String("subscription_id", state.ID),
				zap.String("customer_id", state.CustomerID))
			return nil
		}
		userID = link.UserID
	}

	if err := r.customers.SetCurrentSubscription(ctx, userID, nil); err != nil {
		return err
	}

	if err := r.roles.SetRole(ctx, userID, model.RoleResearcher); err != nil {
		return err
	}

	r.logger.Info("Subscription deletion reconciled, role reverted",
		zap.String("subscription_id", state.ID),
		zap.String("user_id", userID.String()))

	return nil
}

// handleInvoicePaid upserts the payment ledger row keyed by the provider
// transaction ID and extends the subscription period from the invoice lines.
func (r *Reconciler) handleInvoicePaid(ctx context.Context, data json.RawMessage) error {
	invoice, err := parseInvoice(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrWebhookProcessingFailed, err)
	}

	sub, err := r.resolveInvoiceSubscription(ctx, invoice)
	if err != nil || sub == nil {
		return err
	}

	paidAt := r.now()
	payment := &model.Payment{
		UserID:         sub.UserID,
		SubscriptionID: &sub.ID,
		TransactionID:  invoice.TransactionID(),
		AmountCents:    invoice.AmountPaid,
		Currency:       invoice.CurrencyCode(),
		Status:         model.PaymentStatusSucceeded,
		Raw:            rawToJSONB(data),
		PaidAt:         &paidAt,
	}

	if err := r.payments.Upsert(ctx, payment); err != nil {
		return err
	}

	if lineEnd := invoice.LatestPeriodEnd(); lineEnd.After(sub.CurrentPeriodEnd) {
		sub.CurrentPeriodEnd = lineEnd
		if err := r.subscriptions.Upsert(ctx, sub); err != nil {
			return err
		}
		r.logger.Info("Subscription period extended",
			zap.Stringp("subscription_id", sub.ProviderSubscriptionID),
			zap.Time("new_period_end", lineEnd))
	}

	r.logger.Info("Invoice payment recorded",
		zap.String("invoice_id", invoice.ID),
		zap.String("transaction_id", invoice.TransactionID()),
		zap.Int64("amount_cents", invoice.AmountPaid))

	return nil
}

// handleInvoicePaymentFailed records the failed attempt and moves the
// subscription to past_due. The role is left alone: downgrade happens only on
// explicit cancellation, which gives the user a grace window.
func (r *Reconciler) handleInvoicePaymentFailed(ctx context.Context, data json.RawMessage) error {
	invoice, err := parseInvoice(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrWebhookProcessingFailed, err)
	}

	sub, err := r.resolveInvoiceSubscription(ctx, invoice)
	if err != nil || sub == nil {
		return err
	}

	payment := &model.Payment{
		UserID:         sub.UserID,
		SubscriptionID: &sub.ID,
		TransactionID:  invoice.TransactionID(),
		AmountCents:    invoice.AmountDue,
		Currency:       invoice.CurrencyCode(),
		Status:         model.PaymentStatusFailed,
		Raw:            rawToJSONB(data),
	}

	if err := r.payments.Upsert(ctx, payment); err != nil {
		return err
	}

	if err := r.subscriptions.UpdateStatus(ctx, *sub.ProviderSubscriptionID, model.SubscriptionStatusPastDue); err != nil {
		return err
	}

	r.logger.Warn("Invoice payment failed, subscription past due",
		zap.String("invoice_id", invoice.ID),
		zap.Stringp("subscription_id", sub.ProviderSubscriptionID),
		zap.Int64("amount_due_cents", invoice.AmountDue))

	return nil
}

// resolveInvoiceSubscription looks up the local parent subscription for an
// invoice event. A missing parent is logged and dropped: no orphaned payment
// row is ever written.
func (r *Reconciler) resolveInvoiceSubscription(ctx context.Context, invoice *invoicePayload) (*model.Subscription, error) {
	if invoice.Subscription.ID == "" {
		r.logger.Info("Invoice without subscription reference, dropping",
			zap.String("invoice_id", invoice.ID))
		return nil, nil
	}

	sub, err := r.subscriptions.GetByProviderID(ctx, invoice.Subscription.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		r.logger.Warn("Invoice for unknown subscription, dropping",
			zap.String("invoice_id", invoice.ID),
			zap.String("subscription_id", invoice.Subscription.ID))
		return nil, nil
	}

	return sub, nil
}

// resolveOwner determines the owning user for a subscription event. It
// prefers the existing local row (payloads of update events do not always
// carry metadata), then falls back to event metadata, then to the customer
// link.
func (r *Reconciler) resolveOwner(ctx context.Context, state *provider.SubscriptionState) (uuid.UUID, *uuid.UUID, error) {
	existing, err := r.subscriptions.GetByProviderID(ctx, state.ID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if existing != nil {
		return existing.UserID, existing.WorkspaceID, nil
	}

	if userIDStr := state.Metadata["userId"]; userIDStr != "" {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("%w: invalid userId %q", domainErrors.ErrMissingMetadata, userIDStr)
		}
		var workspaceID *uuid.UUID
		if ws := state.Metadata["workspaceId"]; ws != "" {
			parsed, err := uuid.Parse(ws)
			if err != nil {
				return uuid.Nil, nil, fmt.Errorf("%w: invalid workspaceId %q", domainErrors.ErrMissingMetadata, ws)
			}
			workspaceID = &parsed
		}
		return userID, workspaceID, nil
	}

	link, err := r.customers.GetByProviderCustomerID(ctx, state.CustomerID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if link == nil {
		return uuid.Nil, nil, fmt.Errorf("%w: no customer link for %s",
			domainErrors.ErrWebhookProcessingFailed, state.CustomerID)
	}

	return link.UserID, nil, nil
}

// ReprocessPending re-runs stored pending/failed events through dispatch.
// This is the operator-driven recovery path; the webhook endpoint itself
// never asks the provider to retry.
func (r *Reconciler) ReprocessPending(ctx context.Context, limit int) (processed, failed int, err error) {
	events, err := r.webhooks.GetPendingEvents(ctx, limit)
	if err != nil {
		return 0, 0, err
	}

	for _, event := range events {
		data, extractErr := extractEventObject(event.Payload)
		if extractErr != nil {
			r.logger.Error("Stored event payload unusable",
				zap.String("event_id", event.EventID),
				zap.Error(extractErr))
			_ = r.webhooks.MarkFailed(ctx, event.EventID, extractErr)
			failed++
			continue
		}

		if dispatchErr := r.Dispatch(ctx, event.EventType, data); dispatchErr != nil {
			r.logger.Error("Event reprocessing failed",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
				zap.Error(dispatchErr))
			_ = r.webhooks.MarkFailed(ctx, event.EventID, dispatchErr)
			failed++
			continue
		}

		if markErr := r.webhooks.MarkProcessed(ctx, event.EventID); markErr != nil {
			r.logger.Error("Failed to mark reprocessed event",
				zap.String("event_id", event.EventID),
				zap.Error(markErr))
		}
		processed++
	}

	return processed, failed, nil
}

// extractEventObject pulls data.object back out of a stored event envelope
func extractEventObject(payload model.JSONB) (json.RawMessage, error) {
	dataField, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("stored event has no data field")
	}
	object, ok := dataField["object"]
	if !ok {
		return nil, fmt.Errorf("stored event has no data.object field")
	}
	return json.Marshal(object)
}

// mapProviderStatus folds the provider's status vocabulary into the local
// state machine. A status outside the known vocabulary is an error, not a
// guess: the event stays failed and reprocessable until the mapping is
// taught the new value.
func mapProviderStatus(status string) (model.SubscriptionStatus, error) {
	switch status {
	case "active", "trialing":
		return model.SubscriptionStatusActive, nil
	case "past_due", "unpaid", "incomplete":
		return model.SubscriptionStatusPastDue, nil
	case "canceled":
		return model.SubscriptionStatusCanceled, nil
	case "incomplete_expired", "paused":
		return model.SubscriptionStatusExpired, nil
	default:
		return "", fmt.Errorf("%w: unknown subscription status %q",
			domainErrors.ErrWebhookProcessingFailed, status)
	}
}

func rawToJSONB(data json.RawMessage) model.JSONB {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return model.JSONB(m)
}
