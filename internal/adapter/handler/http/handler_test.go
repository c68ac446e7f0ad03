package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/wekeepgrowing/adcampaign-billing/internal/domain/errors"
	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
	"github.com/wekeepgrowing/adcampaign-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"go.uber.org/zap"
)

// MockPurchaseUsecase is a mock implementation of PurchaseUsecase
type MockPurchaseUsecase struct {
	mock.Mock
}

func (m *MockPurchaseUsecase) Purchase(ctx context.Context, req usecase.PurchaseRequest) (*usecase.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PurchaseResult), args.Error(1)
}

func (m *MockPurchaseUsecase) ListPlans(ctx context.Context) ([]*usecase.PlanSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usecase.PlanSummary), args.Error(1)
}

func (m *MockPurchaseUsecase) CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockPurchaseUsecase) ListPayments(ctx context.Context, userID string, limit int) ([]*model.Payment, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func newRequest(method, target, body string, user *auth.AuthUser) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var testUser = &auth.AuthUser{UserID: "user-1", Email: "owner@example.com"}

func TestPurchaseHandler_CreatePurchase(t *testing.T) {
	body := `{"package_id":"starter","payment_method":"card","payment_data":{"payment_method_id":"pm_1"}}`

	tests := []struct {
		name       string
		result     *usecase.PurchaseResult
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name: "success",
			result: &usecase.PurchaseResult{
				Success:      true,
				Subscription: &model.Subscription{ID: uuid.New(), UserID: "user-1"},
				Payment:      &model.Payment{ID: uuid.New(), Amount: decimal.RequireFromString("29.9")},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid request",
			result:     &usecase.PurchaseResult{Error: usecase.ErrorInvalidRequest, Message: "package_id is required"},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidRequest",
		},
		{
			name:       "plan not found",
			result:     &usecase.PurchaseResult{Error: usecase.ErrorPlanNotFound, Message: "Package not found"},
			wantStatus: http.StatusNotFound,
			wantError:  "PlanNotFound",
		},
		{
			name: "package already active",
			result: &usecase.PurchaseResult{
				Error:   usecase.ErrorPackageAlreadyActive,
				Message: "You already have an active Starter package",
				CurrentPackage: &usecase.CurrentPackage{
					Name:    "Starter",
					Price:   decimal.RequireFromString("29.9"),
					EndDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			wantStatus: http.StatusConflict,
			wantError:  "PackageAlreadyActive",
		},
		{
			name:       "payment failed",
			result:     &usecase.PurchaseResult{Error: usecase.ErrorPaymentFailed, Message: "Payment failed: card_declined", Reason: "card_declined"},
			wantStatus: http.StatusPaymentRequired,
			wantError:  "PaymentFailed",
		},
		{
			name:       "unavailable",
			err:        fmt.Errorf("%w: charge: connection refused", domainErrors.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsecase := new(MockPurchaseUsecase)
			handler := NewPurchaseHandler(mockUsecase, zap.NewNop())

			mockUsecase.On("Purchase", mock.Anything, mock.MatchedBy(func(req usecase.PurchaseRequest) bool {
				return req.UserID == "user-1" &&
					req.PackageID == "starter" &&
					req.PaymentMethod == model.PaymentMethodCard &&
					req.PaymentData["payment_method_id"] == "pm_1"
			})).Return(tt.result, tt.err)

			c, rec := newRequest(http.MethodPost, "/api/v1/purchases", body, testUser)

			err := handler.CreatePurchase(c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeBody(t, rec)
			if tt.wantError == "" {
				assert.Equal(t, true, resp["success"])
				assert.NotNil(t, resp["subscription"])
				assert.NotNil(t, resp["payment"])
			} else {
				assert.Equal(t, false, resp["success"])
				assert.Equal(t, tt.wantError, resp["error"])
				assert.NotEmpty(t, resp["message"])
			}
			mockUsecase.AssertExpectations(t)
		})
	}

	t.Run("unexpected error", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewPurchaseHandler(mockUsecase, zap.NewNop())
		mockUsecase.On("Purchase", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		c, _ := newRequest(http.MethodPost, "/api/v1/purchases", body, testUser)

		err := handler.CreatePurchase(c)

		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusInternalServerError, he.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewPurchaseHandler(mockUsecase, zap.NewNop())

		c, rec := newRequest(http.MethodPost, "/api/v1/purchases", `{"package_id":`, testUser)

		require.NoError(t, handler.CreatePurchase(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "InvalidRequest", decodeBody(t, rec)["error"])
		mockUsecase.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewPurchaseHandler(mockUsecase, zap.NewNop())

		c, rec := newRequest(http.MethodPost, "/api/v1/purchases", body, nil)

		assert.Error(t, handler.CreatePurchase(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockUsecase.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
	})
}

func TestPlansHandler_GetPlans(t *testing.T) {
	mockUsecase := new(MockPurchaseUsecase)
	handler := NewPlansHandler(mockUsecase, zap.NewNop())
	mockUsecase.On("ListPlans", mock.Anything).Return([]*usecase.PlanSummary{
		{PackageID: "starter", Type: model.PlanTypeStarter, Name: "Starter", Price: decimal.RequireFromString("29.9")},
		{PackageID: "professional", Type: model.PlanTypeProfessional, Name: "Professional", Price: decimal.RequireFromString("79.9")},
	}, nil)

	c, rec := newRequest(http.MethodGet, "/api/v1/plans", "", nil)

	require.NoError(t, handler.GetPlans(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, float64(2), resp["count"])
	plans := resp["plans"].([]interface{})
	assert.Equal(t, "starter", plans[0].(map[string]interface{})["package_id"])
}

func TestSubscriptionHandler_GetCurrentSubscription(t *testing.T) {
	t.Run("active subscription", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewSubscriptionHandler(mockUsecase, zap.NewNop())
		sub := &model.Subscription{ID: uuid.New(), UserID: "user-1", Status: model.SubscriptionStatusActive}
		mockUsecase.On("CurrentSubscription", mock.Anything, "user-1").Return(sub, nil)

		c, rec := newRequest(http.MethodGet, "/api/v1/subscriptions/current", "", testUser)

		require.NoError(t, handler.GetCurrentSubscription(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, sub.ID.String(), decodeBody(t, rec)["id"])
	})

	t.Run("no subscription", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewSubscriptionHandler(mockUsecase, zap.NewNop())
		mockUsecase.On("CurrentSubscription", mock.Anything, "user-1").Return(nil, nil)

		c, rec := newRequest(http.MethodGet, "/api/v1/subscriptions/current", "", testUser)

		require.NoError(t, handler.GetCurrentSubscription(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPaymentHandler_GetUserPayments(t *testing.T) {
	t.Run("limit is passed through", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewPaymentHandler(mockUsecase, zap.NewNop())
		mockUsecase.On("ListPayments", mock.Anything, "user-1", 5).Return([]*model.Payment{{ID: uuid.New()}}, nil)

		c, rec := newRequest(http.MethodGet, "/api/v1/payments?limit=5", "", testUser)

		require.NoError(t, handler.GetUserPayments(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
		mockUsecase.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		mockUsecase := new(MockPurchaseUsecase)
		handler := NewPaymentHandler(mockUsecase, zap.NewNop())

		c, rec := newRequest(http.MethodGet, "/api/v1/payments?limit=abc", "", testUser)

		require.NoError(t, handler.GetUserPayments(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockUsecase.AssertNotCalled(t, "ListPayments", mock.Anything, mock.Anything, mock.Anything)
	})
}
