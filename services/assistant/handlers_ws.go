// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub tracks one websocket per user and pushes pass envelopes to it. A
// client that reconnects displaces its previous connection.
//
// Thread Safety: safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	logger *slog.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{conns: map[string]*websocket.Conn{}, logger: logger}
}

// Attach registers conn for userID, closing any previous connection.
func (h *Hub) Attach(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[userID]; ok {
		old.Close()
	}
	h.conns[userID] = conn
}

// Detach removes conn if it is still the registered one for userID.
func (h *Hub) Detach(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == conn {
		delete(h.conns, userID)
	}
}

// Push sends an envelope to the user's connection, if any. A write error
// drops the connection; the client is expected to reconnect and re-read
// chat state.
func (h *Hub) Push(userID string, resp datatypes.ApiResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[userID]
	if !ok {
		return
	}
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Warn("websocket push failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		conn.Close()
		delete(h.conns, userID)
	}
}

// HandleChatSocket handles GET /v1/assistant/chats/:user_id/socket.
//
// Description:
//
//	Upgrades the request to a websocket and streams pass envelopes for the
//	user until the peer disconnects. The socket is push-only; inbound
//	frames other than control messages are discarded.
func (h *Handlers) HandleChatSocket(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.svc.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.svc.hub.Attach(userID, conn)
	defer h.svc.hub.Detach(userID, conn)
	defer conn.Close()

	// Drain the connection so pings are answered and closure is noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
