package server

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StatusProvider returns a JSON serializable snapshot of the job state.
type StatusProvider interface {
	Status() any
}

// StatusFunc adapts a function to StatusProvider.
type StatusFunc func() any

func (f StatusFunc) Status() any { return f() }

// Server exposes job health, status and metrics over HTTP.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *zap.Logger
}

// New builds the status server routes. It does not listen until Start.
func New(cfg Config, status StatusProvider, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/status", requireKey(cfg.ApiKey), func(c *fiber.Ctx) error {
		return c.JSON(status.Status())
	})

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{app: app, cfg: cfg, logger: logger}
}

// requireKey rejects requests without the configured API key.
func requireKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		if subtle.ConstantTimeCompare([]byte(c.Get("X-API-Key")), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens in the background. Listen errors are logged, never fatal:
// the job keeps running without its status endpoint.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting status server", zap.String("addr", s.cfg.Addr))
		if err := s.app.Listen(s.cfg.Addr); err != nil {
			s.logger.Warn("Status server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
