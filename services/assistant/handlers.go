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
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// ErrorResponse is the JSON error envelope for all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers holds the HTTP handlers for the assistant service.
type Handlers struct {
	svc *Service

	// oauth is optional; nil disables the OAuth endpoints.
	oauth OAuthFlow

	// contacts, profiles, and archiver are optional; the matching
	// endpoints return 501 until enabled.
	contacts ContactDirectory
	profiles ProfileReader
	archiver ChatArchiver
}

// OAuthFlow is the slice of the credentials manager the handlers need.
type OAuthFlow interface {
	AuthURL(userID string) (string, error)
	Exchange(ctx context.Context, userID, code string) error
}

// NewHandlers builds the handler set. oauth may be nil when the service
// runs without Google integrations.
func NewHandlers(svc *Service, oauth OAuthFlow) *Handlers {
	return &Handlers{svc: svc, oauth: oauth}
}

// HandleMessage handles POST /v1/assistant/messages.
//
// Description:
//
//	Accepts one chat message and runs a plan-and-execute pass for it. The
//	response body is the terminal envelope of the pass; the same envelope
//	is persisted into the user's chat and pushed over the user's websocket.
//
// Response:
//
//	200 OK: datatypes.ApiResponse (including failure envelopes)
//	400 Bad Request: malformed JSON or missing user_id
//	500 Internal Server Error: chat state could not be loaded or persisted
func (h *Handlers) HandleMessage(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.svc.logger.With(slog.String("request_id", requestID))

	var msg datatypes.InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", Code: "INVALID_JSON"})
		return
	}
	if msg.UserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}
	if msg.Status == "" {
		msg.Status = datatypes.PassTaskCreation
	}

	logger.Info("message received",
		slog.String("user_id", msg.UserID),
		slog.String("status", string(msg.Status)),
	)

	resp, err := h.svc.HandleMessage(c.Request.Context(), msg)
	if err != nil {
		logger.Error("message handling failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "CHAT_STATE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetChat handles GET /v1/assistant/chats/:user_id.
func (h *Handlers) HandleGetChat(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}
	chat, err := h.svc.chats.GetChat(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "CHAT_STATE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// HandleOAuthStart handles GET /v1/assistant/oauth/start.
//
// Description:
//
//	Redirects the browser into Google's consent flow for the given user.
//	The user id rides in the OAuth state parameter and comes back on the
//	callback.
func (h *Handlers) HandleOAuthStart(c *gin.Context) {
	if h.oauth == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "OAuth is not configured", Code: "OAUTH_DISABLED"})
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}
	url, err := h.oauth.AuthURL(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "OAUTH_ERROR"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// HandleOAuthCallback handles GET /v1/assistant/oauth/callback.
func (h *Handlers) HandleOAuthCallback(c *gin.Context) {
	if h.oauth == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "OAuth is not configured", Code: "OAUTH_DISABLED"})
		return
	}
	userID := c.Query("state")
	code := c.Query("code")
	if userID == "" || code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "state and code are required", Code: "MISSING_PARAMETER"})
		return
	}
	if err := h.oauth.Exchange(c.Request.Context(), userID, code); err != nil {
		h.svc.logger.Error("oauth exchange failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "token exchange failed", Code: "OAUTH_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// HandleHealth handles GET /v1/assistant/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
