package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/Atik203/Scholar-Flow-sub001/internal/adapter/handler/http"
	"github.com/Atik203/Scholar-Flow-sub001/internal/config"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/provider"
	"github.com/Atik203/Scholar-Flow-sub001/internal/infrastructure/database"
	"github.com/Atik203/Scholar-Flow-sub001/internal/middleware/auth"
	"github.com/Atik203/Scholar-Flow-sub001/internal/usecase"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	repos    *database.Repositories
	provider provider.BillingProvider
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, billingProvider provider.BillingProvider) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		repos:    repos,
		provider: billingProvider,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
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

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Usecases
	catalog := usecase.NewPlanCatalog(s.repos.Plan, s.logger)
	checkoutService := usecase.NewCheckoutService(
		catalog,
		s.repos.CustomerLink,
		s.repos.Subscription,
		s.provider,
		s.logger,
		s.config.Service.ClientURL,
		s.config.Service.TrialDays,
	)
	subscriptionService := usecase.NewSubscriptionService(
		s.repos.Subscription,
		s.repos.Payment,
		s.provider,
		s.logger,
	)
	reconciler := usecase.NewReconciler(
		s.repos.Subscription,
		s.repos.Payment,
		s.repos.CustomerLink,
		s.repos.UserRole,
		catalog,
		s.provider,
		s.repos.Webhook,
		s.logger,
	)

	// Handlers
	plansHandler := handlers.NewPlansHandler(catalog, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, s.logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, s.logger)
	paymentHandler := handlers.NewPaymentHandler(subscriptionService, s.logger)
	webhookHandler := handlers.NewWebhookHandler(reconciler, s.repos.Webhook, s.logger, s.config.Service.Stripe.WebhookSecret)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/webhook",
			"/api/v1/plans",
		},
	}

	v1 := s.echo.Group("/api/v1")

	// Public: plan browsing needs no authentication.
	v1.GET("/plans", plansHandler.GetPlans)

	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("/checkout", checkoutHandler.CreateCheckoutSession)
	subscriptions.POST("/portal", checkoutHandler.CreatePortalSession)
	subscriptions.GET("/current", subscriptionHandler.GetCurrentSubscription)
	subscriptions.POST("/cancel", subscriptionHandler.CancelSubscription)
	subscriptions.POST("/reactivate", subscriptionHandler.ReactivateSubscription)

	protected.GET("/payments", paymentHandler.GetUserPayments)

	// Operator recovery endpoint, authenticated like the rest of the API.
	internal := protected.Group("/internal")
	internal.POST("/webhooks/reprocess", webhookHandler.ReprocessPending)

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}
