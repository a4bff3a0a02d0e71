package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/app/auth"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/app/unitofwork"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"log/slog"
	"net/http"
	"time"
)

type Server struct {
	handler       *echo.Echo
	logger        *slog.Logger
	addr          string
	db            storage.Beginner
	sessions      funnelapp.StorageFactory
	funnelService *funnelapp.Service
	authorizer    *auth.Authorizer
	msgBus        unitofwork.MessageBus
	validator     *validator.Validate
}

func NewServer(opt ...Option) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Server.WriteTimeout = 10 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.IdleTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.MaxHeaderBytes = 4096

	v := validator.New(validator.WithRequiredStructEnabled())

	s := &Server{
		handler:   e,
		logger:    slog.Default(),
		db:        storage.Nop{},
		validator: v,
	}

	for _, opt := range opt {
		opt(s)
	}

	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelInfo,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	s.Mount()
	return s
}

func (s *Server) Mount() {
	s.handler.GET("/health", s.Health)
	s.handler.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.MountEstimate()
	s.MountPricing()
	s.MountFunnel()
}

func (s *Server) Start() error {
	if err := s.handler.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.handler.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return fmt.Errorf("bad request")
	}
	if err := s.validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("bad request")
		}
		return fmt.Errorf("%s: %s", errs[0].Field(), errs[0].Error())

	}
	return nil
}
