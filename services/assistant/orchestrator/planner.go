// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/outputparser"
	"github.com/tmc/langchaingo/prompts"
)

// =============================================================================
// Planner
// =============================================================================

// Inferencer is the opaque inference capability the planner and the
// detail-definer tools delegate to. Retries, if any, belong to the
// implementation, not to callers.
//
// Thread Safety: implementations must be safe for concurrent use.
type Inferencer interface {
	// Infer sends one prompt and returns the raw completion text.
	Infer(ctx context.Context, prompt string) (string, error)
}

// planningTemplate turns the tool catalog and the user's request into the
// decomposition instruction. The two inline rules correct the most common
// planner mistakes (eager email sends, update without a prior find).
const planningTemplate = `Given the tools below and user request: {{.user_request}},
come up with tools to utilize, in sequential order, to achieve the user's request.

Instructions:
- only send email when the request specifically mentioned sending email
- to update a calendar event you must first find the old event and define new event details
======

Tools:
{{.tools}}
======

{{.format_instructions}}
`

// Planner converts free-text requests into ordered task identifier
// sequences. The sequence is passed to the execution loop unvalidated;
// invalid identifiers are caught by registry resolution, not here.
//
// Thread Safety: safe for concurrent use.
type Planner struct {
	llm    Inferencer
	parser outputparser.CommaSeparatedList
	tmpl   prompts.PromptTemplate
	logger *slog.Logger
}

// NewPlanner builds a planner around an inference capability.
func NewPlanner(llm Inferencer, logger *slog.Logger) (*Planner, error) {
	if llm == nil {
		return nil, fmt.Errorf("planner: nil inferencer")
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser := outputparser.NewCommaSeparatedList()
	tmpl := prompts.NewPromptTemplate(planningTemplate, []string{"tools", "user_request", "format_instructions"})
	return &Planner{llm: llm, parser: parser, tmpl: tmpl, logger: logger}, nil
}

// Plan produces the task sequence for one request.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	requestText - The (already truncated) user request.
//	catalog - Planner-visible tool names and one-line descriptions.
//
// Outputs:
//
//	[]string - Ordered task identifiers, possibly with duplicates.
//	error - ErrPlanning-wrapped on prompt or parse failure.
func (p *Planner) Plan(ctx context.Context, requestText string, catalog []CatalogEntry) ([]string, error) {
	prompt, err := p.tmpl.Format(map[string]any{
		"tools":               formatCatalog(catalog),
		"user_request":        requestText,
		"format_instructions": p.parser.GetFormatInstructions(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: format prompt: %v", ErrPlanning, err)
	}

	raw, err := p.llm.Infer(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanning, err)
	}

	tasks, err := p.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse task list %q: %v", ErrPlanning, raw, err)
	}
	for i, t := range tasks {
		tasks[i] = strings.TrimSpace(t)
	}

	p.logger.Info("planner produced task sequence",
		slog.Int("task_count", len(tasks)),
		slog.String("tasks", strings.Join(tasks, ",")),
	)
	return tasks, nil
}

// formatCatalog renders the catalog one tool per line for the prompt.
func formatCatalog(catalog []CatalogEntry) string {
	var b strings.Builder
	for _, e := range catalog {
		b.WriteString(e.Name)
		if e.Description != "" {
			b.WriteString(": ")
			b.WriteString(e.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
