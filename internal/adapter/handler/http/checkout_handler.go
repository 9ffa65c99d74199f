package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/Atik203/Scholar-Flow-sub001/internal/domain/errors"
	"github.com/Atik203/Scholar-Flow-sub001/internal/middleware/auth"
	"github.com/Atik203/Scholar-Flow-sub001/internal/observability"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CreateCheckoutRequest struct {
	Tier        string `json:"tier" validate:"required,oneof=pro team"`
	Interval    string `json:"interval" validate:"required,oneof=monthly yearly"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
	SuccessURL  string `json:"success_url" validate:"omitempty,url"`
	CancelURL   string `json:"cancel_url" validate:"omitempty,url"`
}

type CreateCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckoutSession opens a provider checkout session for the
// authenticated user
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	session, err := h.checkout.CreateCheckoutSession(c.Request().Context(), usecase.CreateCheckoutSessionInput{
		UserID:      user.UserID,
		Email:       user.Email,
		DisplayName: req.DisplayName,
		Tier:        req.Tier,
		Interval:    req.Interval,
		WorkspaceID: user.WorkspaceID,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidPlan) || errors.Is(err, domainErrors.ErrPlanNotConfigured) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unknown plan"})
		}
		h.logger.Error("Checkout session creation failed",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create checkout session"})
	}

	observability.CheckoutSessionsCreated.Inc()

	return c.JSON(http.StatusCreated, CreateCheckoutResponse{
		SessionID:   session.SessionID,
		CheckoutURL: session.RedirectURL,
	})
}

// CreatePortalSession opens the provider billing portal for the
// authenticated user
func (h *CheckoutHandler) CreatePortalSession(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	url, err := h.checkout.CreatePortalSession(c.Request().Context(), user.UserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "No billing profile for this user"})
		}
		h.logger.Error("Portal session creation failed",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create portal session"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
