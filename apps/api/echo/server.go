package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Service    *portal.Service
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *metrics.Metrics
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		issuer   *tokenIssuer
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		issuer:   newTokenIssuer(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.deps.Metrics.Middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/healthz", s.health)
	s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.issuer.jwtConfig())
	limiter := newLoginLimiter(conf.Server.LoginRatePerSecond, conf.Server.LoginBurst, s.deps.Metrics.LoginThrottled)

	base := baseApi{
		svc:        s.deps.Service,
		store:      s.deps.Service.Store(),
		validate:   s.deps.Validate,
		translator: s.deps.Translator,
		logger:     s.deps.Logger,
	}
	registerAuthAPI(g, jwt, limiter, s.issuer, base)
	registerPublicAPI(g, jwt, base)
	registerAdminAPI(g, jwt, base)
	registerStudentAPI(g, jwt, base)
	registerFacultyAPI(g, jwt, base)
	registerSiteAPI(g, jwt, base)
}

func (s *Server) Start() {
	s.deps.Logger.Info(fmt.Sprintf("API listening on %s", s.deps.Conf.Server.Address))
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports the listener errors.
func (s *Server) Errors() <-chan error { return s.errors }

// ShutdownSignal is fed by SIGINT, SIGTERM and SignalShutdown.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown stops the listener, then flushes the pending store writes.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	if err := s.app.Shutdown(ctx); err != nil {
		return err
	}
	return s.deps.Service.Store().Flush(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, fmt.Sprintf("Welcome to %s API!", s.deps.Conf.AppName))
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.deps.Service.Store().PersistError(); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}
