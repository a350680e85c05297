// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/transport/httpserver/handler"
	"ad-placement-service/internal/transport/httpserver/middleware"
	"ad-placement-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         int
	BodyLimit    int
	Debug        bool
	TemplatesDir string
	StaticDir    string
	CORSOrigins  []string
}

// Services groups the use cases the HTTP layer depends on.
type Services struct {
	Placements handler.PlacementSelector
	Interests  interface {
		handler.InterestResolver
		handler.InterestKeeper
	}
	Tracking handler.EventTracker
	Ads      handler.AdManager
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// Readiness checks back /readyz; /livez always answers while the process runs.
func NewServer(
	cfg ServerConfig,
	svc Services,
	v *validator.Validator,
	logger *zap.Logger,
	checks ...middleware.ReadinessCheck,
) *Server {
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "./web/templates"
	}

	// Template engine for dashboard
	engine := html.New(cfg.TemplatesDir, ".html")
	if cfg.Debug {
		engine.Reload(true)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "ad-placement-service",
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          errorHandler(logger),
		Views:                 engine,
		DisableStartupMessage: !cfg.Debug,
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(checks...))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(compress.New())

	if cfg.StaticDir != "" {
		app.Static("/static", cfg.StaticDir)
	}

	// Create handlers
	placementHandler := handler.NewPlacementHandler(svc.Placements, svc.Interests, v, logger)
	trackingHandler := handler.NewTrackingHandler(svc.Tracking, v, logger)
	interestHandler := handler.NewInterestHandler(svc.Interests, v, logger)
	adminHandler := handler.NewAdminHandler(svc.Ads, v, logger)
	dashboardHandler := handler.NewDashboardHandler(svc.Ads, logger)

	// Register routes
	registerRoutes(app, placementHandler, trackingHandler, interestHandler, adminHandler, dashboardHandler)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all API routes.
func registerRoutes(
	app *fiber.App,
	placementHandler *handler.PlacementHandler,
	trackingHandler *handler.TrackingHandler,
	interestHandler *handler.InterestHandler,
	adminHandler *handler.AdminHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	// Health checks are handled by middleware (/livez, /readyz)

	// Dashboard (HTML)
	app.Get("/dashboard", dashboardHandler.Render)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	// API v1 routes
	v1 := app.Group("/api/v1")

	// Placements
	placements := v1.Group("/placements")
	placements.Get("/", placementHandler.Select)
	placements.Get("/window", placementHandler.Window)

	// Tracking
	ads := v1.Group("/ads")
	ads.Post("/:id/impression", trackingHandler.Impression)
	ads.Post("/:id/click", trackingHandler.Click)
	ads.Post("/:id/view-duration", trackingHandler.ViewDuration)

	// Visitor interests
	visitors := v1.Group("/visitors")
	visitors.Get("/:visitor_id/interests", interestHandler.Get)
	visitors.Post("/:visitor_id/interests", interestHandler.Record)
	visitors.Delete("/:visitor_id/interests", interestHandler.Clear)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Get("/ads", adminHandler.List)
	admin.Post("/ads", adminHandler.Create)
	admin.Get("/ads/:id", adminHandler.Get)
	admin.Put("/ads/:id", adminHandler.Update)
	admin.Delete("/ads/:id", adminHandler.Delete)
	admin.Post("/ads/:id/activate", adminHandler.Activate)
	admin.Post("/ads/:id/deactivate", adminHandler.Deactivate)
	admin.Post("/cache/clear", adminHandler.ClearCache)
	admin.Post("/expire", adminHandler.Expire)
	admin.Get("/stats", adminHandler.Stats)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
			return c.Status(code).JSON(dto.ErrorResponse{
				Error: "resource not found",
				Code:  "NOT_FOUND",
			})
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
			return c.Status(code).JSON(dto.ErrorResponse{
				Error: "internal error",
				Code:  "INTERNAL_ERROR",
			})
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "REQUEST_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
