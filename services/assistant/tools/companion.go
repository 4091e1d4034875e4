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

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// companionFallbackTask keeps the companion from going silent when a pass
// reaches it with no usable request text.
const companionFallbackTask = "tell me a joke"

// Companion is the small-talk fallback tool. It is the planner's catch-all
// for requests no other tool covers.
type Companion struct {
	model orchestrator.Inferencer
}

// NewCompanion builds the companion on the given chat model.
func NewCompanion(model orchestrator.Inferencer) (*Companion, error) {
	if model == nil {
		return nil, fmt.Errorf("tools: nil model")
	}
	return &Companion{model: model}, nil
}

// Chat answers the user's request conversationally. It ignores mode: a chat
// reply is its own preview.
func (c *Companion) Chat(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	request := input.GetString("user_task")
	if request == "" {
		request = companionFallbackTask
	}
	reply, err := c.model.Infer(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("tools: companion chat: %w", err)
	}
	return datatypes.Body{"_text": reply}, nil
}
