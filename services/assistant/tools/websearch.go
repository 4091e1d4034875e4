// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/serpapi"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// searcher lets tests stub the SerpAPI call.
type searcher interface {
	Call(ctx context.Context, input string) (string, error)
}

// WebSearch answers questions about current events with a live web search.
type WebSearch struct {
	engine searcher
}

// NewWebSearch builds the search tool. An empty apiKey defers to the
// SERPAPI_API_KEY environment variable.
func NewWebSearch(apiKey string) (*WebSearch, error) {
	var opts []serpapi.Option
	if apiKey != "" {
		opts = append(opts, serpapi.WithAPIKey(apiKey))
	}
	engine, err := serpapi.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("tools: serpapi: %w", err)
	}
	return &WebSearch{engine: engine}, nil
}

// Search runs the user's request through the search engine.
func (w *WebSearch) Search(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	result, err := w.engine.Call(ctx, input.GetString("user_task"))
	if err != nil {
		return nil, fmt.Errorf("tools: web search: %w", err)
	}
	return datatypes.Body{"_text": result}, nil
}
