// Package httpapi exposes the workflow services over JSON and multipart
// HTTP under /api/v1.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/auth"
	"rncflow/internal/ports"
	"rncflow/internal/usecase/conserto"
	"rncflow/internal/usecase/devolucao"
	"rncflow/internal/usecase/inc"
	"rncflow/internal/usecase/notification"
	"rncflow/internal/usecase/rnc"
)

const component = "transport.http"

// maxFilesPerRequest bounds the multipart body: the largest policy takes
// ten inspection photos.
const maxFilesPerRequest = 10

var validate = validator.New()

type Services struct {
	INC          *inc.Service
	RNC          *rnc.Service
	Devolucao    *devolucao.Service
	Conserto     *conserto.Service
	Notification *notification.Service
}

type Options struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxFileBytes    int64
	// Health reports readiness on /healthz; nil means always healthy.
	Health func(context.Context) error
}

type Server struct {
	echo      *echo.Echo
	services  Services
	tokens    *auth.Tokens
	directory ports.Directory
	opts      Options
}

func NewServer(services Services, tokens *auth.Tokens, directory ports.Directory, opts Options) (*Server, error) {
	if tokens == nil {
		return nil, errors.New("tokens is required")
	}
	if directory == nil {
		return nil, errors.New("directory is required")
	}
	if services.INC == nil || services.RNC == nil || services.Devolucao == nil ||
		services.Conserto == nil || services.Notification == nil {
		return nil, errors.New("all services are required")
	}
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = ":8080"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = upload.DefaultMaxBytes
	}

	s := &Server{
		echo:      echo.New(),
		services:  services,
		tokens:    tokens,
		directory: directory,
		opts:      opts,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = errorHandler
	s.registerMiddlewares()
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) registerMiddlewares() {
	bodyLimitKB := (s.opts.MaxFileBytes*maxFilesPerRequest)/1024 + 1024
	s.echo.Use(middleware.RequestID())
	s.echo.Use(requestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dK", bodyLimitKB)))
	s.echo.Use(middleware.ContextTimeout(s.opts.RequestTimeout))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	logCtx := logging.WithComponent(ctx, component)

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logCtx, "http server started", slog.String("addr", s.opts.Addr))
		if err := s.echo.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logging.Error(logCtx, "http server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve http")
		}
		return nil
	case <-ctx.Done():
	}
	return s.Shutdown(context.WithoutCancel(ctx))
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.opts.ShutdownTimeout)
	defer cancel()

	logging.Info(logging.WithComponent(ctx, component), "http server stopping")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, "shutdown http server")
	}
	return nil
}
