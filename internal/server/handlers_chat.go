package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bendog/following-api/internal/ledger"
	"github.com/bendog/following-api/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients connect from the served pages on any host
	},
}

func (s *Server) handleChatWebSocket(c echo.Context) error {
	clientID := c.Param("client_id")
	if clientID == "" {
		return c.String(400, "Missing client id")
	}
	log := logging.WithClient(clientID)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	handle, err := s.chatHub.Join(conn)
	if err != nil {
		log.Warn("Failed to join chat hub", "hub", s.chatHub.Name(), "error", err)
		_ = conn.Close()
		return nil
	}
	s.ledger.AddClient(clientID)

	log.Info("Client connected", "handle", handle.String())

	// Read pump — blocks until the connection closes.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleChatFrame(log, clientID, handle, string(payload))
	}

	s.chatHub.Leave(handle)
	s.chatHub.Publish(fmt.Sprintf("Client #%s left the chat", clientID))
	if err := s.ledger.RemoveClient(clientID); err != nil {
		// Teardown can race another cleanup path; absence is benign here.
		log.Debug("Client already removed from ledger", "error", err)
	}

	log.Info("Client disconnected")
	return nil
}

// handleChatFrame applies the inbound frame semantics: echo to the sender,
// then either a status update (integer payload) or a plain chat broadcast.
func (s *Server) handleChatFrame(log *slog.Logger, clientID string, handle uuid.UUID, payload string) {
	s.chatHub.Unicast(handle, fmt.Sprintf("You wrote: %s", payload))

	value, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		// Not a status integer — fall back to plain chat, never an error.
		s.chatHub.Publish(fmt.Sprintf("Client #%s says: %s", clientID, payload))
		return
	}

	if err := s.ledger.UpdateValue(clientID, value); err != nil {
		if errors.Is(err, ledger.ErrClientNotFound) {
			// The identity is added on join, so this is a programming error.
			log.Error("Update for unknown ledger client", "error", err)
		} else {
			log.Error("Failed to update ledger value", "error", err)
		}
		return
	}

	score, err := s.ledger.ClientStatus(clientID)
	if err != nil {
		log.Error("Failed to read client status", "error", err)
		return
	}
	s.chatHub.Publish(fmt.Sprintf("Client #%s adjusted their score to: %d", clientID, score))

	average, err := s.ledger.Average()
	if err != nil {
		log.Error("Failed to compute average", "error", err)
		return
	}
	s.chatHub.Publish(fmt.Sprintf("Following Value is %.1f", average))
}
