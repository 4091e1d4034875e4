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
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// =============================================================================
// Response Assembly
// =============================================================================

const (
	// apologyText is the only failure text end users ever see. Diagnostics
	// travel in ErrorMessage/StackTrace instead.
	apologyText = "Sorry, I am unable to process your request."

	// declineAckText acknowledges a declined confirmation.
	declineAckText = "Ok, sounds good."

	// createdAtLayout is UTC ISO-8601 at second precision.
	createdAtLayout = "2006-01-02T15:04:05Z"
)

// Assembler shapes loop outcomes into the outward ApiResponse envelope.
// The clock and id generator are injectable for tests.
//
// Thread Safety: safe for concurrent use.
type Assembler struct {
	now   func() time.Time
	newID func() string
}

// NewAssembler returns an assembler on the real clock and uuid generator.
func NewAssembler() *Assembler {
	return &Assembler{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Confirmation builds the halt envelope for an AwaitingConfirmation outcome.
// The tool's "_text" preview line becomes the user-facing text and is
// blanked inside the body so the preview payload round-trips cleanly.
func (a *Assembler) Confirmation(outcome Outcome, req datatypes.InboundMessage) datatypes.ApiResponse {
	body := outcome.Output.Clone()
	text := body.GetString("_text")
	body["_text"] = ""
	return a.enrich(datatypes.ApiResponse{
		Status:           datatypes.ResponseConfirmation,
		Text:             text,
		Body:             body,
		BodyType:         outcome.BodyType,
		LastExecutedTask: outcome.LastExecuted,
		AllTasks:         outcome.Tasks,
	}, req)
}

// Success builds the terminal envelope for a Succeeded outcome. Text stays
// empty; conversational replies ride in the body's "_text" field, where the
// chat clients already look for them.
func (a *Assembler) Success(outcome Outcome, req datatypes.InboundMessage) datatypes.ApiResponse {
	return a.enrich(datatypes.ApiResponse{
		Status:           datatypes.ResponseSuccess,
		Text:             "",
		Body:             outcome.Output.Clone(),
		BodyType:         outcome.BodyType,
		LastExecutedTask: outcome.LastExecuted,
		AllTasks:         outcome.Tasks,
	}, req)
}

// Failure builds the terminal envelope for a Failed outcome. The previous
// pass's body, body type, and plan fields are preserved for observability;
// the error itself rides in ErrorMessage/StackTrace only.
func (a *Assembler) Failure(outcome Outcome, req datatypes.InboundMessage, stack string) datatypes.ApiResponse {
	allTasks := outcome.Tasks
	if allTasks == nil {
		allTasks = req.AllTasks
	}
	lastExecuted := req.LastExecutedTask
	errMsg := ""
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}
	return a.enrich(datatypes.ApiResponse{
		Status:           datatypes.ResponseFailure,
		Text:             apologyText,
		Body:             req.Body.Clone(),
		BodyType:         req.BodyType,
		LastExecutedTask: lastExecuted,
		AllTasks:         allTasks,
		ErrorMessage:     errMsg,
		StackTrace:       stack,
	}, req)
}

// Declined builds the acknowledgement envelope for an explicit decline.
// Nothing executed, so the previous body is carried forward untouched and
// the outward status is success. The acknowledgement addresses nobody, so
// mentions is emptied rather than echoed from the request.
func (a *Assembler) Declined(req datatypes.InboundMessage) datatypes.ApiResponse {
	resp := a.enrich(datatypes.ApiResponse{
		Status:           datatypes.ResponseSuccess,
		Text:             declineAckText,
		Body:             req.Body.Clone(),
		BodyType:         req.BodyType,
		LastExecutedTask: req.LastExecutedTask,
		AllTasks:         req.AllTasks,
	}, req)
	resp.Mentions = []datatypes.Mention{}
	return resp
}

// enrich stamps the fields every envelope carries: identity, clock,
// mentions, sender, and a fresh unique body id.
func (a *Assembler) enrich(resp datatypes.ApiResponse, req datatypes.InboundMessage) datatypes.ApiResponse {
	if resp.Body == nil {
		resp.Body = datatypes.Body{}
	}
	resp.Body["id"] = a.newID()
	resp.UserID = req.UserID
	resp.CreatedAt = a.now().UTC().Format(createdAtLayout)
	resp.Mentions = req.Mentions
	resp.Sender = "system"
	return resp
}
