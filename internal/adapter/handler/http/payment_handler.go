package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/adcampaign-billing/internal/middleware/auth"
	apperrors "github.com/wekeepgrowing/adcampaign-billing/pkg/errors"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	usecase PurchaseUsecase
	logger  *zap.Logger
}

func NewPaymentHandler(usecase PurchaseUsecase, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// GetUserPayments lists the caller's most recent payments
func (h *PaymentHandler) GetUserPayments(c echo.Context) error {
	// Get authenticated user from JWT
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already returns the JSON error response
	}

	// Parse limit query parameter; the usecase applies the default and cap
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			h.logger.Warn("Invalid limit parameter",
				zap.String("limit", limitStr))
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid limit parameter",
			})
		}
		limit = parsedLimit
	}

	payments, err := h.usecase.ListPayments(c.Request().Context(), user.UserID, limit)
	if err != nil {
		h.logger.Error("Failed to get user payments",
			zap.String("user_id", user.UserID),
			zap.Int("limit", limit),
			zap.Error(err))
		return apperrors.ToHTTPError(apperrors.NewAppError(apperrors.ErrUnavailable, "Failed to get payments", err))
	}

	h.logger.Debug("Retrieved user payments",
		zap.String("user_id", user.UserID),
		zap.Int("payment_count", len(payments)),
	)

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
		"count":    len(payments),
	})
}
