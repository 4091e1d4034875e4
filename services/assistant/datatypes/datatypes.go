// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the message and envelope types shared between the
// assistant transport, orchestrator, and storage layers.
//
// Thread Safety:
//
//	All types in this package are plain data. They are safe for concurrent
//	read access but not for concurrent mutation.
package datatypes

import "fmt"

// PassStatus identifies how a plan-and-execute pass is entered.
type PassStatus string

const (
	// PassTaskCreation starts a fresh plan from the user's request text.
	PassTaskCreation PassStatus = "task_creation"

	// PassExecution resumes a previously confirmed plan. Confirmation-mode
	// halts are bypassed for the remainder of the plan.
	PassExecution PassStatus = "execution"

	// PassLocal runs a plan end to end without confirmation halts. Used by
	// the local REPL where the operator is the approver.
	PassLocal PassStatus = "local"

	// PassDeclined acknowledges a declined confirmation. No tools run.
	PassDeclined PassStatus = "declined"
)

// ResponseStatus is the terminal status carried by an ApiResponse.
type ResponseStatus string

const (
	ResponseSuccess      ResponseStatus = "success"
	ResponseFailure      ResponseStatus = "failure"
	ResponseConfirmation ResponseStatus = "confirmation"
)

// Body is the schemaless payload attached to messages and tool outputs.
// Values follow encoding/json decoding conventions (string, float64, bool,
// []any, map[string]any).
type Body map[string]any

// Clone returns a shallow copy of the body. A nil body clones to an empty,
// non-nil body so callers can always write to the result.
func (b Body) Clone() Body {
	out := make(Body, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Merge returns a new body containing b overlaid with overlay. Overlay keys
// win on conflict. Neither input is mutated.
func (b Body) Merge(overlay Body) Body {
	out := b.Clone()
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// GetString returns the string value for key, or "" when absent or not a
// string.
func (b Body) GetString(key string) string {
	s, _ := b[key].(string)
	return s
}

// Mention is a user @-mention attached to an inbound chat message.
type Mention struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// InboundMessage is one chat message as submitted by the client. The same
// field set, minus Text and ID, is echoed back on every ApiResponse so that
// a confirmation pass can be reconstructed from persisted chat state alone.
type InboundMessage struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	UserID           string     `json:"user_id"`
	Status           PassStatus `json:"status"`
	LastExecutedTask string     `json:"last_executed_task"`
	AllTasks         []string   `json:"all_tasks"`
	Body             Body       `json:"body"`
	BodyType         string     `json:"body_type"`
	CreatedAt        string     `json:"created_at"`
	Mentions         []Mention  `json:"mentions"`
	Sender           string     `json:"sender"`
}

// ApiResponse is the terminal envelope of one plan-and-execute pass. It is
// the only state that crosses pass boundaries: on confirmation, AllTasks,
// LastExecutedTask, and Body are what the next pass resumes from.
type ApiResponse struct {
	Status           ResponseStatus `json:"status"`
	Text             string         `json:"text"`
	Body             Body           `json:"body"`
	BodyType         string         `json:"body_type"`
	LastExecutedTask string         `json:"last_executed_task"`
	AllTasks         []string       `json:"all_tasks"`
	CreatedAt        string         `json:"created_at"`
	Mentions         []Mention      `json:"mentions"`
	Sender           string         `json:"sender"`
	UserID           string         `json:"user_id,omitempty"`

	// ErrorMessage and StackTrace are operator diagnostics on failure
	// envelopes. They are never surfaced in Text.
	ErrorMessage string `json:"error_message,omitempty"`
	StackTrace   string `json:"stack_trace,omitempty"`
}

// UserContext is the per-user ambient context injected into every tool's
// default input.
type UserContext struct {
	Name               string `json:"name"`
	CurrentDateAndTime string `json:"current_date_and_time"`
	TimeZone           string `json:"time_zone"`
	MentionedUsers     string `json:"mentioned_users"`
	CalendarID         string `json:"calendar_id"`
}

// String renders the context in the prompt-friendly form consumed by the
// detail-definer tools.
func (c UserContext) String() string {
	return fmt.Sprintf(
		"name: %s; current date and time: %s; time zone: %s; mentioned users: %s; calendar id: %s",
		c.Name, c.CurrentDateAndTime, c.TimeZone, c.MentionedUsers, c.CalendarID,
	)
}

// ChatState is the per-user chat document. Messages are stored as raw bodies
// rather than typed structs so write-back merges preserve unknown fields the
// client may attach.
type ChatState struct {
	Status   string `json:"status"`
	Messages []Body `json:"messages"`
}

// Profile is one synced contact for a user.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarURL"`
}
