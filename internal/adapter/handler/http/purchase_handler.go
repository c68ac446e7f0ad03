package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/provider"
	"github.com/wekeepgrowing/adcampaign-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	apperrors "github.com/wekeepgrowing/adcampaign-billing/pkg/errors"
	"go.uber.org/zap"
)

// CreatePurchaseRequest is the body of POST /purchases
type CreatePurchaseRequest struct {
	PackageID     string                 `json:"package_id"`
	PaymentMethod string                 `json:"payment_method"`
	PaymentData   map[string]interface{} `json:"payment_data"`
}

type PurchaseHandler struct {
	usecase PurchaseUsecase
	logger  *zap.Logger
}

func NewPurchaseHandler(usecase PurchaseUsecase, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// resultCodes maps business failures onto shared error codes
var resultCodes = map[usecase.PurchaseErrorCode]string{
	usecase.ErrorInvalidRequest:       apperrors.ErrInvalidArgument,
	usecase.ErrorPlanNotFound:         apperrors.ErrNotFound,
	usecase.ErrorPackageAlreadyActive: apperrors.ErrConflict,
	usecase.ErrorPaymentFailed:        apperrors.ErrPaymentRequired,
}

func (h *PurchaseHandler) CreatePurchase(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already wrote the JSON error response
	}

	var req CreatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Invalid purchase request body",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, &usecase.PurchaseResult{
			Error:   usecase.ErrorInvalidRequest,
			Message: "Invalid request body",
		})
	}

	result, err := h.usecase.Purchase(c.Request().Context(), usecase.PurchaseRequest{
		UserID:        user.UserID,
		PackageID:     req.PackageID,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		PaymentData:   provider.PaymentData(req.PaymentData),
	})
	if err != nil {
		apperrors.LogError(h.logger, err, "Purchase failed",
			zap.String("user_id", user.UserID),
			zap.String("package_id", req.PackageID))

		if errors.Is(err, domainErrors.ErrUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"success": false,
				"error":   "Unavailable",
				"message": "The service is temporarily unavailable, please try again later",
			})
		}
		return apperrors.ToHTTPError(err)
	}

	if result.Success {
		return c.JSON(http.StatusOK, result)
	}

	h.logger.Info("Purchase rejected",
		zap.String("user_id", user.UserID),
		zap.String("package_id", req.PackageID),
		zap.String("error", string(result.Error)),
		zap.String("message", result.Message))

	code, ok := resultCodes[result.Error]
	if !ok {
		code = apperrors.ErrInternal
	}
	return c.JSON(apperrors.ToHTTPStatus(code), result)
}
