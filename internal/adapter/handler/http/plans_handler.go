package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/wekeepgrowing/adcampaign-billing/pkg/errors"
	"go.uber.org/zap"
)

type PlansHandler struct {
	usecase PurchaseUsecase
	logger  *zap.Logger
}

func NewPlansHandler(usecase PurchaseUsecase, logger *zap.Logger) *PlansHandler {
	return &PlansHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// GetPlans lists every purchasable package
func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.usecase.ListPlans(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list plans", zap.Error(err))
		return apperrors.ToHTTPError(apperrors.NewAppError(apperrors.ErrUnavailable, "Failed to get plans", err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"plans": plans,
		"count": len(plans),
	})
}
