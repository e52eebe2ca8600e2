package server

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleMonitorWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	handle, err := s.ledger.JoinMonitor(conn)
	if err != nil {
		slog.Warn("Failed to join status hub", "error", err)
		_ = conn.Close()
		return nil
	}

	slog.Info("Monitor connected", "handle", handle.String())

	// Monitors only watch the aggregate stream. Inbound frames are read to
	// detect disconnects and otherwise dropped.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		slog.Debug("Discarding monitor frame", "payload", string(payload))
	}

	s.ledger.LeaveMonitor(handle)

	slog.Info("Monitor disconnected", "handle", handle.String())
	return nil
}
