package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/adapter/repository"
	"github.com/Atik203/Scholar-Flow-sub001/internal/observability"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

// WebhookHandler receives provider event deliveries. The contract with the
// provider: 400 for signatures that fail verification, 500 when the event
// cannot be durably stored, 200 for everything else. Once an event is
// stored, a processing failure is acknowledged and retried from the stored
// record, never by asking the provider to redeliver.
type WebhookHandler struct {
	reconciler *usecase.Reconciler
	webhooks   repository.WebhookRepository
	logger     *zap.Logger
	secret     string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	reconciler *usecase.Reconciler,
	webhooks repository.WebhookRepository,
	logger *zap.Logger,
	secret string,
) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		webhooks:   webhooks,
		logger:     logger,
		secret:     secret,
	}
}

// HandleWebhook verifies, stores, and processes one event delivery
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := h.rawBody(c)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.secret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		observability.WebhookEventsRejected.Inc()
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)))

	// Persist before processing. The unique event_id makes this the dedup
	// point: only the delivery that inserts the row goes on to process it.
	inserted, err := h.webhooks.SaveEvent(c.Request().Context(), event.ID, string(event.Type), body)
	if err != nil {
		// Nothing durable exists yet, so acknowledging here would lose the
		// event for good. A 5xx keeps it on the provider's redelivery
		// schedule until it can be stored.
		observability.WebhookEventsStoreFailed.Inc()
		h.logger.Error("Failed to persist webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to store event",
		})
	}
	if !inserted {
		observability.WebhookEventsDuplicate.Inc()
		h.logger.Info("Duplicate event delivery acknowledged",
			zap.String("event_id", event.ID))
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if err := h.reconciler.Dispatch(c.Request().Context(), string(event.Type), event.Data.Raw); err != nil {
		observability.WebhookEventsFailed.WithLabelValues(string(event.Type)).Inc()
		h.logger.Error("Event processing failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		if markErr := h.webhooks.MarkFailed(c.Request().Context(), event.ID, err); markErr != nil {
			h.logger.Error("Failed to mark event failed",
				zap.String("event_id", event.ID),
				zap.Error(markErr))
		}
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	observability.WebhookEventsProcessed.WithLabelValues(string(event.Type)).Inc()
	if err := h.webhooks.MarkProcessed(c.Request().Context(), event.ID); err != nil {
		h.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// ReprocessPending is the operator recovery endpoint: it re-runs stored
// pending and failed events through the reconciler
func (h *WebhookHandler) ReprocessPending(c echo.Context) error {
	limit := 50
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	processed, failed, err := h.reconciler.ReprocessPending(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Event reprocessing sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to reprocess events",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"processed": processed,
		"failed":    failed,
	})
}

// rawBody returns the exact bytes the provider signed. Signature
// verification needs the unmodified payload, so a pre-buffered body is
// re-read from its source rather than from any middleware rewrite.
func (h *WebhookHandler) rawBody(c echo.Context) ([]byte, error) {
	req := c.Request()
	if req.GetBody != nil {
		r, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	return io.ReadAll(req.Body)
}
