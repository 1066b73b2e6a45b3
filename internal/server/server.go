// Package server contains the HTTP gateway in front of the BaaS.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"applitrack/internal/baas"
	"applitrack/internal/config"
	"applitrack/internal/featureflags"
	"applitrack/internal/middleware"
	"applitrack/internal/models"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

const defaultOrigins = "http://localhost:3000,https://www.applitrack.no,https://applitrack.pockethost.io"

// Server holds the gateway dependencies. Handlers keep no per-request state on it.
type Server struct {
	config         *config.Config
	backend        baas.Backend
	redis          *redis.Client
	app            *fiber.App
	appOnce        sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Set
}

// NewServer creates a gateway forwarding to backend. redisClient may be nil,
// in which case the per-route rate limits fail open.
func NewServer(cfg *config.Config, backend baas.Backend, redisClient *redis.Client) *Server {
	return &Server{
		config:         cfg,
		backend:        backend,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("applitrack-api"),
		featureFlags:   featureflags.Parse(cfg.FeatureFlags),
	}
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Applitrack API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagate request ID into the request context for the logger
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.TracingMiddleware())

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
		MaxAge:       86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Post("/signup", middleware.RateLimit(
		s.redis, s.config.Env, 3, 10*time.Minute, "signup"), s.Signup)
	app.Post("/login", middleware.RateLimit(
		s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/requestPasswordReset",
		featureflags.Require(s.featureFlags, featureflags.PasswordReset),
		middleware.RateLimit(s.redis, s.config.Env, 3, 10*time.Minute, "password_reset"),
		s.RequestPasswordReset)

	app.Get("/posts", middleware.BearerRequired(), s.GetPosts)
	app.Post("/createPost", middleware.BearerRequired(), s.CreatePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the BaaS and Redis are reachable.
// Redis is optional; without it the check reports "disabled" and stays healthy.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	backendStatus := "healthy"
	if err := s.backend.Ping(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "backend ping failed", slog.String("error", err.Error()))
		backendStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if backendStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"backend": backendStatus,
			"redis":   redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.httpApp()
	s.logStartup(":" + s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Serve runs the gateway on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	app := s.httpApp()
	s.logStartup(ln.Addr().String())
	return app.Listener(ln)
}

func (s *Server) httpApp() *fiber.App {
	s.appOnce.Do(func() { s.app = s.App() })
	return s.app
}

func (s *Server) logStartup(addr string) {
	middleware.Logger.Info("server starting",
		slog.String("addr", addr),
		slog.String("backend", fmt.Sprint(s.backend)),
		slog.Any("feature_flags", s.featureFlags.Names()),
	)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpApp().ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
