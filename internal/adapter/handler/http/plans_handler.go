package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type PlansHandler struct {
	catalog *usecase.PlanCatalog
	logger  *zap.Logger
}

func NewPlansHandler(catalog *usecase.PlanCatalog, logger *zap.Logger) *PlansHandler {
	return &PlansHandler{
		catalog: catalog,
		logger:  logger,
	}
}

type PlanResponse struct {
	Code     string         `json:"code"`
	Tier     string         `json:"tier"`
	Interval string         `json:"interval"`
	Name     string         `json:"name"`
	Role     string         `json:"role"`
	Features model.Features `json:"features"`
}

// GetPlans returns the active plan catalog. Provider price IDs stay
// server-side; the client selects by tier and interval.
func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.catalog.List(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load plan catalog", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load plans"})
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{
			Code:     p.Code,
			Tier:     p.Tier,
			Interval: p.Interval,
			Name:     p.Name,
			Role:     p.Role,
			Features: p.Features,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}
