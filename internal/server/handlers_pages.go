package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleIndex(c echo.Context) error {
	data := map[string]any{
		"WebsocketHost": s.config.WebsocketHost,
	}
	return renderTemplate(c, s.indexTemplate, data)
}

func (s *Server) handleMonitorPage(c echo.Context) error {
	data := map[string]any{
		"WebsocketHost": s.config.WebsocketHost,
	}
	return renderTemplate(c, s.monitorTemplate, data)
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func renderTemplate(c echo.Context, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("Failed to render template", "template", tmpl.Name(), "error", err)
		return c.String(500, "Failed to render page")
	}
	return c.HTML(200, buf.String())
}
