package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/adcampaign-billing/internal/adapter/handler/http"
	"github.com/wekeepgrowing/adcampaign-billing/internal/config"
	"github.com/wekeepgrowing/adcampaign-billing/internal/middleware/auth"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/logger"
	"go.uber.org/zap"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	usecase handlers.PurchaseUsecase
}

func NewServer(cfg *config.Config, log *zap.Logger, usecase handlers.PurchaseUsecase) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.HTTP.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s := &Server{
		config:  cfg,
		logger:  log,
		echo:    e,
		usecase: usecase,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	plansHandler := handlers.NewPlansHandler(s.usecase, s.logger)
	purchaseHandler := handlers.NewPurchaseHandler(s.usecase, s.logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.usecase, s.logger)
	paymentHandler := handlers.NewPaymentHandler(s.usecase, s.logger)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/api/v1/plans",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/plans", plansHandler.GetPlans)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	protected.POST("/purchases", purchaseHandler.CreatePurchase)
	protected.GET("/subscriptions/current", subscriptionHandler.GetCurrentSubscription)
	protected.GET("/payments", paymentHandler.GetUserPayments)
}
