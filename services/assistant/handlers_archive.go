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

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// ChatArchiver writes a snapshot of a chat to long-term storage and
// returns the object name it wrote.
type ChatArchiver interface {
	Archive(ctx context.Context, userID string, chat datatypes.ChatState) (string, error)
}

// EnableArchiving turns on the transcript archive endpoint.
func (h *Handlers) EnableArchiving(archiver ChatArchiver) {
	h.archiver = archiver
}

// HandleArchiveChat handles POST /v1/assistant/chats/:user_id/archive.
//
// Description:
//
//	Snapshots the user's current chat into the transcript bucket. The
//	chat itself is left untouched; clients clear it separately if they
//	want a fresh conversation.
func (h *Handlers) HandleArchiveChat(c *gin.Context) {
	if h.archiver == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "archiving is not configured", Code: "ARCHIVE_DISABLED"})
		return
	}
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
	object, err := h.archiver.Archive(c.Request.Context(), userID, chat)
	if err != nil {
		h.svc.logger.Error("chat archive failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "archive write failed", Code: "ARCHIVE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived", "object": object})
}
