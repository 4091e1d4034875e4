// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the task catalog the planner selects from:
// Google Calendar CRUD, Gmail drafting, detail-definer LLM steps, web
// search, and the companion chat fallback.
//
// Every tool is an orchestrator.InvokeFunc. Effectful tools honor
// confirmation mode by returning a preview of what they would do instead
// of doing it.
package tools

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider yields per-user OAuth token sources for the Google APIs.
// credentials.Manager satisfies this.
type TokenProvider interface {
	TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error)
}
