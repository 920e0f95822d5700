package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/maturityd/internal/audit"
	"github.com/fyrsmithlabs/maturityd/internal/config"
	"github.com/fyrsmithlabs/maturityd/internal/engine"
	"github.com/fyrsmithlabs/maturityd/internal/patterns"
)

// Server provides HTTP endpoints for maturityd.
type Server struct {
	echo         *echo.Echo
	machine      *engine.StateMachine
	trail        *audit.Trail
	analyzer     *patterns.Engine
	logger       *zap.Logger
	config       config.ServerConfig
	confirmLimit *rate.Limiter
}

// NewServer creates a new HTTP server bound to the state machine.
func NewServer(
	machine *engine.StateMachine,
	trail *audit.Trail,
	analyzer *patterns.Engine,
	logger *zap.Logger,
	cfg config.ServerConfig,
) (*Server, error) {
	if machine == nil {
		return nil, errors.New("state machine is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConfirmRateLimit <= 0 {
		cfg.ConfirmRateLimit = 5
	}
	if cfg.ConfirmRateBurst <= 0 {
		cfg.ConfirmRateBurst = 10
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:         e,
		machine:      machine,
		trail:        trail,
		analyzer:     analyzer,
		logger:       logger,
		config:       cfg,
		confirmLimit: rate.NewLimiter(rate.Limit(cfg.ConfirmRateLimit), cfg.ConfirmRateBurst),
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects/:id", s.handleGetProject)
	v1.POST("/projects/:id/evidence", s.handleRecordEvidence)
	v1.POST("/projects/:id/transition", s.handleRequestTransition)
	v1.GET("/projects/:id/audit", s.handleListAudit)
	v1.GET("/projects/:id/analysis", s.handleAnalysis)

	v1.POST("/decisions/:id/resolve", s.handleResolveDecision)
	v1.POST("/decisions/:id/cancel", s.handleCancelDecision)

	v1.POST("/payments/:id/confirm", s.handleConfirmPayment, s.confirmRateLimit)
	v1.POST("/payments/:id/cancel", s.handleCancelPayment)
}

// confirmRateLimit throttles payment confirmations. Confirmations arrive
// from external billing systems that retry aggressively on timeouts.
func (s *Server) confirmRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.confirmLimit.Allow() {
			return echo.NewHTTPError(http.StatusTooManyRequests, "confirmation rate limit exceeded")
		}
		return next(c)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
