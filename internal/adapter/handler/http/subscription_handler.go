package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/adcampaign-billing/internal/middleware/auth"
	apperrors "github.com/wekeepgrowing/adcampaign-billing/pkg/errors"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	usecase PurchaseUsecase
	logger  *zap.Logger
}

func NewSubscriptionHandler(usecase PurchaseUsecase, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// GetCurrentSubscription returns the caller's active subscription
func (h *SubscriptionHandler) GetCurrentSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sub, err := h.usecase.CurrentSubscription(c.Request().Context(), user.UserID)
	if err != nil {
		h.logger.Error("Failed to get current subscription",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return apperrors.ToHTTPError(apperrors.NewAppError(apperrors.ErrUnavailable, "Failed to get subscription", err))
	}

	if sub == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":   "No active subscription",
			"message": "No active subscription found",
		})
	}

	return c.JSON(http.StatusOK, sub)
}
