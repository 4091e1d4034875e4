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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all assistant routes with the router.
//
// Description:
//
//	Registers the /v1/assistant/* endpoints with the given Gin router
//	group. The group should already carry any required middleware.
//
// Endpoints:
//
//	POST /v1/assistant/messages - Run a plan-and-execute pass for one message
//	GET  /v1/assistant/chats/:user_id - Read a user's chat state
//	GET  /v1/assistant/chats/:user_id/socket - Push envelopes over websocket
//	POST /v1/assistant/chats/:user_id/archive - Snapshot a chat to the transcript bucket
//	GET  /v1/assistant/contacts/:user_id - Read a user's synced profiles
//	POST /v1/assistant/contacts/:user_id/sync - Refresh profiles from Google
//	GET  /v1/assistant/oauth/start - Begin the Google consent flow
//	GET  /v1/assistant/oauth/callback - Complete the Google consent flow
//	GET  /v1/assistant/health - Liveness probe
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	assistant := rg.Group("/assistant")
	{
		assistant.POST("/messages", handlers.HandleMessage)
		assistant.GET("/chats/:user_id", handlers.HandleGetChat)
		assistant.GET("/chats/:user_id/socket", handlers.HandleChatSocket)
		assistant.POST("/chats/:user_id/archive", handlers.HandleArchiveChat)
		assistant.GET("/contacts/:user_id", handlers.HandleGetContacts)
		assistant.POST("/contacts/:user_id/sync", handlers.HandleContactSync)
		assistant.GET("/oauth/start", handlers.HandleOAuthStart)
		assistant.GET("/oauth/callback", handlers.HandleOAuthCallback)
		assistant.GET("/health", handlers.HandleHealth)
	}
}
