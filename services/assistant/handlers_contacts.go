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

// ContactDirectory refreshes a user's contact profiles from upstream
// sources.
type ContactDirectory interface {
	Sync(ctx context.Context, userID string) error
}

// ProfileReader reads the synced profiles for a user.
type ProfileReader interface {
	GetProfiles(userID string) ([]datatypes.Profile, error)
}

// EnableContactSync turns on the contact endpoints. Both collaborators
// are required; without them the endpoints return 501.
func (h *Handlers) EnableContactSync(directory ContactDirectory, profiles ProfileReader) {
	h.contacts = directory
	h.profiles = profiles
}

// HandleContactSync handles POST /v1/assistant/contacts/:user_id/sync.
//
// Description:
//
//	Pulls recent calendar attendees and saved Google contacts for the
//	user, merges them, and persists the profile list used for @mention
//	resolution.
func (h *Handlers) HandleContactSync(c *gin.Context) {
	if h.contacts == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "contact sync is not configured", Code: "CONTACTS_DISABLED"})
		return
	}
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}
	if err := h.contacts.Sync(c.Request.Context(), userID); err != nil {
		h.svc.logger.Error("contact sync failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "contact sync failed", Code: "CONTACTS_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

// HandleGetContacts handles GET /v1/assistant/contacts/:user_id.
func (h *Handlers) HandleGetContacts(c *gin.Context) {
	if h.profiles == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "contact sync is not configured", Code: "CONTACTS_DISABLED"})
		return
	}
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required", Code: "MISSING_PARAMETER"})
		return
	}
	profiles, err := h.profiles.GetProfiles(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "PROFILE_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}
