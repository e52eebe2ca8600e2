package server

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bendog/following-api/internal/config"
	"github.com/bendog/following-api/internal/hub"
	"github.com/bendog/following-api/internal/ledger"
)

type Server struct {
	echo            *echo.Echo
	config          *config.Config
	chatHub         *hub.Hub
	ledger          *ledger.StatusLedger
	indexTemplate   *template.Template
	monitorTemplate *template.Template
	startTime       time.Time
}

func NewServer(cfg *config.Config, chatHub *hub.Hub, statusLedger *ledger.StatusLedger) (*Server, error) {
	// Parse templates once at startup
	indexTmpl, err := template.ParseFiles("web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	monitorTmpl, err := template.ParseFiles("web/templates/monitor.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse monitor template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:            e,
		config:          cfg,
		chatHub:         chatHub,
		ledger:          statusLedger,
		indexTemplate:   indexTmpl,
		monitorTemplate: monitorTmpl,
		startTime:       time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
