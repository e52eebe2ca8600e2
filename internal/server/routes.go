package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Served pages
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/mon/", s.handleMonitorPage)

	// WebSocket endpoints
	s.echo.GET("/ws/:client_id", s.handleChatWebSocket)
	s.echo.GET("/mon/ws", s.handleMonitorWebSocket)
}
