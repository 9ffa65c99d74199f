package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/middleware/auth"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type SubscriptionHandler struct {
	subscriptions *usecase.SubscriptionService
	logger        *zap.Logger
}

func NewSubscriptionHandler(subscriptions *usecase.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

type SubscriptionResponse struct {
	Status            string     `json:"status"`
	PlanCode          string     `json:"plan_code,omitempty"`
	PlanName          string     `json:"plan_name,omitempty"`
	Role              string     `json:"role,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
}

func subscriptionResponse(sub *model.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		TrialEnd:          sub.TrialEnd,
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		periodEnd := sub.CurrentPeriodEnd
		resp.CurrentPeriodEnd = &periodEnd
	}
	if sub.Plan != nil {
		resp.PlanCode = sub.Plan.Code
		resp.PlanName = sub.Plan.Name
		resp.Role = sub.Plan.Role
	}
	return resp
}

// GetCurrentSubscription returns the caller's active subscription, or the
// free-tier shape when there is none
func (h *SubscriptionHandler) GetCurrentSubscription(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	sub, err := h.subscriptions.GetUserSubscription(c.Request().Context(), user.UserID, user.WorkspaceID)
	if err != nil {
		h.logger.Error("Failed to load subscription",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}

	if sub == nil {
		return c.JSON(http.StatusOK, SubscriptionResponse{
			Status: "none",
			Role:   model.RoleResearcher,
		})
	}

	return c.JSON(http.StatusOK, subscriptionResponse(sub))
}

// CancelSubscription schedules cancellation at period end
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	return h.setCancel(c, true)
}

// ReactivateSubscription clears a pending cancellation
func (h *SubscriptionHandler) ReactivateSubscription(c echo.Context) error {
	return h.setCancel(c, false)
}

func (h *SubscriptionHandler) setCancel(c echo.Context, cancel bool) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var sub *model.Subscription
	if cancel {
		sub, err = h.subscriptions.Cancel(c.Request().Context(), user.UserID, user.WorkspaceID)
	} else {
		sub, err = h.subscriptions.Reactivate(c.Request().Context(), user.UserID, user.WorkspaceID)
	}
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "No active subscription"})
		}
		h.logger.Error("Failed to update cancellation flag",
			zap.String("user_id", user.UserID.String()),
			zap.Bool("cancel", cancel),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update subscription"})
	}

	return c.JSON(http.StatusOK, subscriptionResponse(sub))
}
