package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/middleware/auth"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type PaymentHandler struct {
	subscriptions *usecase.SubscriptionService
	logger        *zap.Logger
}

func NewPaymentHandler(subscriptions *usecase.SubscriptionService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

type PaymentResponse struct {
	TransactionID string     `json:"transaction_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GetUserPayments returns the caller's recent payment history
func (h *PaymentHandler) GetUserPayments(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	limit := 20
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
	}

	payments, err := h.subscriptions.ListPayments(c.Request().Context(), user.UserID, limit)
	if err != nil {
		h.logger.Error("Failed to load payment history",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load payments"})
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentResponse{
			TransactionID: p.TransactionID,
			Amount:        p.Amount().StringFixed(2),
			Currency:      p.Currency,
			Status:        string(p.Status),
			PaidAt:        p.PaidAt,
			CreatedAt:     p.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}
