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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/llm"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// =============================================================================
// Event details definer
// =============================================================================

const eventDetailsTemplate = `Your goal is to define event details based on the user task, user context, and previous calendar event details, if any.
The summary field should always be filled. Default to today if the user didn't mention a date.
Return the event in JSON format with details from the user task, user context, and previous event details:

JSON format:
{
  "summary": "Google I/O 2023",
  "location": "Mountain View, CA",
  "description": "The annual Google I/O conference",
  "start_date": "2023-09-15T10:30:00-08:00",
  "end_date": "2023-09-15T12:30:00-08:00",
  "calendar_id": "1234567890",
  "attendees": [{"email": "abc@gmail.com", "displayName": "Sarah Abc"}],
  "time_zone": "America/Los_Angeles"
}

User context, task, and previous event (if any):
{{.params}}`

// EventDetailsDefiner turns a free-form request plus pass context into the
// structured fields the calendar tools bind against.
type EventDetailsDefiner struct {
	model  orchestrator.Inferencer
	prompt prompts.PromptTemplate
}

// NewEventDetailsDefiner builds a definer on the given model. The fast model
// is the intended one; extraction is cheap work.
func NewEventDetailsDefiner(model orchestrator.Inferencer) (*EventDetailsDefiner, error) {
	if model == nil {
		return nil, fmt.Errorf("tools: nil model")
	}
	return &EventDetailsDefiner{
		model: model,
		prompt: prompts.NewPromptTemplate(
			eventDetailsTemplate,
			[]string{"params"},
		),
	}, nil
}

// Define runs the extraction. The whole input body is rendered into the
// prompt so carried-over fields from an earlier find step steer the model.
func (d *EventDetailsDefiner) Define(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	rendered, err := d.prompt.Format(map[string]any{"params": renderBody(input)})
	if err != nil {
		return nil, fmt.Errorf("tools: format event details prompt: %w", err)
	}
	raw, err := d.model.Infer(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("tools: event details inference: %w", err)
	}
	details, err := decodeJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("tools: event details response: %w", err)
	}
	return details, nil
}

// =============================================================================
// Date range definer
// =============================================================================

const dateRangeTemplate = `Your goal is to define a date range based on the user task.
The user's current date and time and time zone are provided in the user context, so you must
convert the date range you defined to UTC time based on the user's time zone.

Return in JSON format:
{
  "min_date": "2023-09-15T00:00:00-08:00",
  "max_date": "2023-09-15T23:59:59-08:00"
}

Examples:

**Example 1:**
User task: give me my gcal events today
User context: current date and time: 2023-09-14 08:00:00; time zone: America/Los_Angeles
Answer:
{
  "min_date": "2023-09-14T00:00:00-08:00",
  "max_date": "2023-09-14T23:59:59-08:00"
}

**Example 2:**
User task: show me my schedule for next week
User context: current date and time: 2023-09-14 08:00:00; time zone: America/Los_Angeles
Answer:
{
  "min_date": "2023-09-18T00:00:00-08:00",
  "max_date": "2023-09-24T23:59:59-08:00"
}

**Example 3:**
User task: what's on my calendar for this weekend
User context: current date and time: 2023-09-14 08:00:00; time zone: America/Los_Angeles
Answer:
{
  "min_date": "2023-09-16T00:00:00-08:00",
  "max_date": "2023-09-17T23:59:59-08:00"
}

User context: {{.user_context}}
User task: {{.user_task}}`

// DateRange is a resolved [min, max) query window in RFC 3339 form.
type DateRange struct {
	MinDate string
	MaxDate string
}

// DateRangeDefiner resolves relative phrases ("next week", "this weekend")
// into an absolute window using the user's clock.
type DateRangeDefiner struct {
	model  orchestrator.Inferencer
	prompt prompts.PromptTemplate
}

func NewDateRangeDefiner(model orchestrator.Inferencer) (*DateRangeDefiner, error) {
	if model == nil {
		return nil, fmt.Errorf("tools: nil model")
	}
	return &DateRangeDefiner{
		model: model,
		prompt: prompts.NewPromptTemplate(
			dateRangeTemplate,
			[]string{"user_context", "user_task"},
		),
	}, nil
}

// Define resolves the window for userTask.
func (d *DateRangeDefiner) Define(ctx context.Context, userTask, userContext string) (DateRange, error) {
	rendered, err := d.prompt.Format(map[string]any{
		"user_context": userContext,
		"user_task":    userTask,
	})
	if err != nil {
		return DateRange{}, fmt.Errorf("tools: format date range prompt: %w", err)
	}
	raw, err := d.model.Infer(ctx, rendered)
	if err != nil {
		return DateRange{}, fmt.Errorf("tools: date range inference: %w", err)
	}
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return DateRange{}, fmt.Errorf("tools: date range response: %w", err)
	}
	dr := DateRange{
		MinDate: datatypes.Body(obj).GetString("min_date"),
		MaxDate: datatypes.Body(obj).GetString("max_date"),
	}
	if dr.MinDate == "" || dr.MaxDate == "" {
		return DateRange{}, fmt.Errorf("tools: date range response missing bounds: %q", raw)
	}
	return dr, nil
}

// =============================================================================
// Email details definer
// =============================================================================

const emailDetailsTemplate = `Your goal is to define email details based on the user request or task. Draft the text for
the email based on the user context.
The email details should always include subject, sender, receiver, and text fields.
Return the email in JSON format with details from the user task:

JSON format:
{
  "subject": "Meeting Reminder",
  "sender": "john.doe@example.com",
  "receiver": "jane.doe@example.com",
  "text": "Dear Jane, This is a reminder for our meeting scheduled tomorrow at 10:30 AM. \n Best, John"
}

Example:
User request: Send an email to Sarah about the "Project Update" meeting tomorrow at 10:30 AM. My email is john.doe@example.com and Sarah's email is sarah.smith@example.com.
Answer:
{
  "subject": "Project Update Meeting",
  "sender": "john.doe@example.com",
  "receiver": "sarah.smith@example.com",
  "text": "Dear Sarah,\n\nThis is a reminder for our Project Update meeting scheduled tomorrow at 10:30 AM.\n\nBest regards,\nJohn"
}

{{.user_task}}
{{.user_context}}`

// EmailDetailsDefiner drafts a structured email from a free-form request.
type EmailDetailsDefiner struct {
	model  orchestrator.Inferencer
	prompt prompts.PromptTemplate
}

func NewEmailDetailsDefiner(model orchestrator.Inferencer) (*EmailDetailsDefiner, error) {
	if model == nil {
		return nil, fmt.Errorf("tools: nil model")
	}
	return &EmailDetailsDefiner{
		model: model,
		prompt: prompts.NewPromptTemplate(
			emailDetailsTemplate,
			[]string{"user_task", "user_context"},
		),
	}, nil
}

// Define drafts the email fields for the bound input.
func (d *EmailDetailsDefiner) Define(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	rendered, err := d.prompt.Format(map[string]any{
		"user_task":    input.GetString("user_task"),
		"user_context": input.GetString("user_context"),
	})
	if err != nil {
		return nil, fmt.Errorf("tools: format email details prompt: %w", err)
	}
	raw, err := d.model.Infer(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("tools: email details inference: %w", err)
	}
	details, err := decodeJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("tools: email details response: %w", err)
	}
	// Sender may be blank; the tool falls back to the account address.
	for _, field := range []string{"subject", "receiver", "text"} {
		if details.GetString(field) == "" {
			return nil, fmt.Errorf("tools: email details missing %s: %q", field, raw)
		}
	}
	return details, nil
}

// =============================================================================
// Shared helpers
// =============================================================================

// decodeJSONResponse parses a model reply that should be one JSON object,
// tolerating markdown fences and prose around the object. Unlike
// llm.ExtractJSONObject this handles nested objects (attendee lists).
func decodeJSONResponse(raw string) (datatypes.Body, error) {
	s := raw
	if fenced := llm.ExtractBetween(s, "```json", "```"); fenced != "" {
		s = fenced
	} else if fenced := llm.ExtractBetween(s, "```", "```"); fenced != "" {
		s = fenced
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in %q", clipText(raw, 120))
	}
	var out datatypes.Body
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", clipText(raw, 120), err)
	}
	return out, nil
}

// renderBody gives the body a stable textual form for prompts. Keys are
// marshaled rather than %v-printed so the model sees real JSON.
func renderBody(b datatypes.Body) string {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(b))
	}
	return string(data)
}

func clipText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
