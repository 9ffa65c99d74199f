package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook pipeline counters. Rejected counts signature failures, duplicate
// counts redeliveries acknowledged without processing.
var (
	WebhookEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_processed_total",
		Help: "Webhook events fully processed, by event type.",
	}, []string{"event_type"})

	WebhookEventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_failed_total",
		Help: "Webhook events whose processing failed, by event type.",
	}, []string{"event_type"})

	WebhookEventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_webhook_events_duplicate_total",
		Help: "Webhook deliveries skipped because the event was already stored.",
	})

	WebhookEventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_webhook_events_rejected_total",
		Help: "Webhook deliveries rejected for an invalid signature.",
	})

	WebhookEventsStoreFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_webhook_events_store_failed_total",
		Help: "Webhook deliveries that could not be durably stored and were returned for redelivery.",
	})

	CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_checkout_sessions_created_total",
		Help: "Provider checkout sessions created.",
	})
)
