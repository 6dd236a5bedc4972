// Package server exposes the predictor as a web form and a JSON API.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/logger"
	"github.com/spigell/offer-predictor/internal/model"
	"github.com/spigell/offer-predictor/internal/predictor"
)

const (
	appName        = "Offer Acceptance Predictor"
	defaultAddr    = ":8501"
	defaultTimeout = 30 * time.Second
	requestIDKey   = "requestid"
)

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ModelKind is reported by the health endpoint.
	ModelKind string
	// CacheStats is reported by the health endpoint when the prediction cache is on.
	CacheStats func() model.CacheStats
}

type Server struct {
	app       *fiber.App
	opts      Options
	predictor *predictor.Predictor
	logger    *zap.Logger
}

func New(opts Options, p *predictor.Predictor, log *zap.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultTimeout
	}

	s := &Server{
		opts:      opts,
		predictor: p,
		logger:    logger.WithFields(log),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	s.app.Use(accessLog(s.logger))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Post("/predict", s.handlePredictForm)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.handleHealth)
	api.Get("/metrics", s.handleMetrics)
	api.Get("/form", s.handleForm)
	api.Post("/predict", s.handlePredict)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("starting http server", zap.String("addr", s.opts.Addr))
	return s.app.Listen(s.opts.Addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down http server")
	return s.app.Shutdown()
}

func accessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Any("request_id", c.Locals(requestIDKey)),
		)

		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
