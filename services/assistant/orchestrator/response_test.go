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
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

func fixedAssembler() *Assembler {
	n := 0
	return &Assembler{
		now: func() time.Time {
			return time.Date(2025, 10, 24, 21, 53, 40, 999, time.UTC)
		},
		newID: func() string {
			n++
			return "id-" + string(rune('0'+n))
		},
	}
}

var assemblerReq = datatypes.InboundMessage{
	UserID:   "user-1",
	Mentions: []datatypes.Mention{{Username: "john", Email: "john@x.io"}},
	Body:     datatypes.Body{"carried": true},
	BodyType: "calendar.create",
}

func TestAssembler_EnrichmentFields(t *testing.T) {
	a := fixedAssembler()
	resp := a.Success(Outcome{
		State:        StateSucceeded,
		Tasks:        []string{"companion.chat"},
		LastExecuted: SentinelTask,
		BodyType:     "companion.chat",
		Output:       datatypes.Body{"_text": "hello"},
	}, assemblerReq)

	if resp.UserID != "user-1" {
		t.Errorf("user_id = %q", resp.UserID)
	}
	if resp.CreatedAt != "2025-10-24T21:53:40Z" {
		t.Errorf("created_at = %q, want second-precision ISO 8601 UTC", resp.CreatedAt)
	}
	if resp.Sender != "system" {
		t.Errorf("sender = %q", resp.Sender)
	}
	if len(resp.Mentions) != 1 || resp.Mentions[0].Username != "john" {
		t.Errorf("mentions not carried from request: %v", resp.Mentions)
	}
	if resp.Body["id"] == "" || resp.Body["id"] == nil {
		t.Error("body.id must be a freshly generated identifier")
	}
}

func TestAssembler_BodyIDUniqueAcrossCalls(t *testing.T) {
	a := NewAssembler()
	outcome := Outcome{State: StateSucceeded, Output: datatypes.Body{}}
	first := a.Success(outcome, assemblerReq)
	second := a.Success(outcome, assemblerReq)
	if first.Body["id"] == second.Body["id"] {
		t.Errorf("body.id must differ between calls, both were %v", first.Body["id"])
	}
	if first.Body["id"] == "" {
		t.Error("body.id must be non-empty")
	}
}

func TestAssembler_Confirmation(t *testing.T) {
	a := fixedAssembler()
	resp := a.Confirmation(Outcome{
		State:        StateAwaitingConfirmation,
		Tasks:        []string{"calendar.find_one_event", "calendar.create"},
		LastExecuted: "calendar.find_one_event",
		BodyType:     "calendar.create",
		Output:       datatypes.Body{"summary": "Lunch", "_text": "Create Lunch at noon?"},
	}, assemblerReq)

	if resp.Status != datatypes.ResponseConfirmation {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Text != "Create Lunch at noon?" {
		t.Errorf("text = %q, want the tool preview line", resp.Text)
	}
	if resp.Body["_text"] != "" {
		t.Errorf("body._text should be blanked, got %v", resp.Body["_text"])
	}
	if resp.Body["summary"] != "Lunch" {
		t.Errorf("preview fields must survive in body, got %v", resp.Body)
	}
	if resp.BodyType != "calendar.create" {
		t.Errorf("body_type = %q", resp.BodyType)
	}
	if resp.LastExecutedTask != "calendar.find_one_event" {
		t.Errorf("last_executed_task = %q", resp.LastExecutedTask)
	}
	if len(resp.AllTasks) != 2 {
		t.Errorf("all_tasks must carry the full plan, got %v", resp.AllTasks)
	}
}

func TestAssembler_FailurePreservesPlanState(t *testing.T) {
	a := fixedAssembler()
	req := assemblerReq
	req.LastExecutedTask = "calendar.find_one_event"
	req.AllTasks = []string{"calendar.find_one_event", "calendar.create"}

	resp := a.Failure(Outcome{State: StateFailed, Err: ErrResumptionExhausted}, req, "stack...")

	if resp.Status != datatypes.ResponseFailure {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Text != apologyText {
		t.Errorf("text = %q, want the fixed apology", resp.Text)
	}
	if resp.LastExecutedTask != "calendar.find_one_event" {
		t.Errorf("last_executed_task not preserved: %q", resp.LastExecutedTask)
	}
	if len(resp.AllTasks) != 2 {
		t.Errorf("all_tasks not preserved: %v", resp.AllTasks)
	}
	if resp.Body["carried"] != true {
		t.Errorf("body not carried over: %v", resp.Body)
	}
	if resp.ErrorMessage == "" || resp.StackTrace == "" {
		t.Error("failure envelopes carry operator diagnostics")
	}
	if resp.Text == resp.ErrorMessage {
		t.Error("error detail must not leak into user-facing text")
	}
}

func TestAssembler_Declined(t *testing.T) {
	a := fixedAssembler()
	resp := a.Declined(assemblerReq)

	if resp.Status != datatypes.ResponseSuccess {
		t.Errorf("declined envelopes report success, got %q", resp.Status)
	}
	if resp.Text != declineAckText {
		t.Errorf("text = %q, want the fixed acknowledgement", resp.Text)
	}
	if resp.Body["carried"] != true {
		t.Errorf("previous body must be carried untouched, got %v", resp.Body)
	}
	if resp.Mentions == nil || len(resp.Mentions) != 0 {
		t.Errorf("declined envelopes address nobody, got mentions %v", resp.Mentions)
	}
}

func TestAssembler_NilBodyStillGetsID(t *testing.T) {
	a := fixedAssembler()
	resp := a.Failure(Outcome{State: StateFailed, Err: ErrEmptyPlan}, datatypes.InboundMessage{}, "")
	if resp.Body == nil {
		t.Fatal("body must never be nil on an assembled envelope")
	}
	if resp.Body["id"] == nil {
		t.Error("body.id missing on nil-body envelope")
	}
}
