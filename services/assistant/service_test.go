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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// memChats is an in-memory ChatStore that records the statuses it saw.
type memChats struct {
	chats    map[string]datatypes.ChatState
	statuses []string
}

func newMemChats() *memChats {
	return &memChats{chats: map[string]datatypes.ChatState{}}
}

func (m *memChats) GetChat(userID string) (datatypes.ChatState, error) {
	if chat, ok := m.chats[userID]; ok {
		return chat, nil
	}
	return datatypes.ChatState{Status: ChatStatusReady}, nil
}

func (m *memChats) PutChat(userID string, chat datatypes.ChatState) error {
	m.statuses = append(m.statuses, chat.Status)
	stored := chat
	stored.Messages = append([]datatypes.Body(nil), chat.Messages...)
	m.chats[userID] = stored
	return nil
}

// cannedRunner returns a fixed envelope for every pass.
type cannedRunner struct {
	resp datatypes.ApiResponse
}

func (r *cannedRunner) PlanAndExecute(context.Context, datatypes.InboundMessage) datatypes.ApiResponse {
	return r.resp
}

func newTestService(t *testing.T, resp datatypes.ApiResponse) (*Service, *memChats) {
	t.Helper()
	chats := newMemChats()
	svc, err := NewService(&cannedRunner{resp: resp}, chats, nil)
	require.NoError(t, err)
	svc.newID = func() string { return "fresh-id" }
	return svc, chats
}

func TestHandleMessage_TaskCreationAppends(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{
		Status: datatypes.ResponseSuccess,
		Text:   "",
	})

	msg := datatypes.InboundMessage{
		ID:     "m1",
		Text:   "create a meeting",
		UserID: "u1",
		Status: datatypes.PassTaskCreation,
	}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	chat := chats.chats["u1"]
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "m1", chat.Messages[0].GetString("id"))
	assert.Equal(t, "success", chat.Messages[0].GetString("status"))
	assert.Equal(t, ChatStatusReady, chat.Status)
	// loading first, ready after.
	assert.Equal(t, []string{ChatStatusLoading, ChatStatusReady}, chats.statuses)
}

func TestHandleMessage_SuccessPersistsReplyBody(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{
		Status:   datatypes.ResponseSuccess,
		Text:     "Here is your briefing.",
		Body:     datatypes.Body{"_text": "Here is your briefing.", "id": "env-1"},
		BodyType: "calendar.retrieve_and_summarize",
	})

	msg := datatypes.InboundMessage{
		ID:     "m1",
		Text:   "what's on my calendar",
		UserID: "u1",
		Status: datatypes.PassTaskCreation,
		Body:   datatypes.Body{"stale": "inbound"},
	}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	stored := chats.chats["u1"].Messages[0]
	assert.Equal(t, "m1", stored.GetString("id"))
	assert.Equal(t, "calendar.retrieve_and_summarize", stored.GetString("body_type"))
	body, ok := stored["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Here is your briefing.", body["_text"])
	assert.NotContains(t, body, "stale")
}

func TestHandleMessage_ConfirmationCreatesNewMessage(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{
		Status:           datatypes.ResponseConfirmation,
		Text:             "Create \"Standup\" tomorrow at 9?",
		Body:             datatypes.Body{"summary": "Standup"},
		BodyType:         "calendar.create",
		AllTasks:         []string{"event-details-definer", "calendar.create"},
		LastExecutedTask: "event-details-definer",
	})

	msg := datatypes.InboundMessage{
		ID:     "m1",
		Text:   "schedule standup",
		UserID: "u1",
		Status: datatypes.PassTaskCreation,
	}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	chat := chats.chats["u1"]
	require.Len(t, chat.Messages, 1)
	stored := chat.Messages[0]
	assert.Equal(t, "fresh-id", stored.GetString("id"))
	assert.Equal(t, "confirmation", stored.GetString("status"))
	assert.Equal(t, "system", stored.GetString("sender"))
	assert.Equal(t, "calendar.create", stored.GetString("body_type"))
	assert.Equal(t, "event-details-definer", stored.GetString("last_executed_task"))
}

func TestHandleMessage_ExecutionReplacesById(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{
		Status: datatypes.ResponseSuccess,
	})
	chats.chats["u1"] = datatypes.ChatState{
		Status: ChatStatusReady,
		Messages: []datatypes.Body{
			{"id": "m0", "status": "success"},
			{"id": "m1", "status": "confirmation"},
		},
	}

	msg := datatypes.InboundMessage{
		ID:       "m1",
		UserID:   "u1",
		Status:   datatypes.PassExecution,
		AllTasks: []string{"event-details-definer", "calendar.create"},
	}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	chat := chats.chats["u1"]
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "m1", chat.Messages[1].GetString("id"))
	assert.Equal(t, "success", chat.Messages[1].GetString("status"))
}

func TestHandleMessage_ExecutionMissingIdStillRecords(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{Status: datatypes.ResponseSuccess})

	msg := datatypes.InboundMessage{ID: "gone", UserID: "u1", Status: datatypes.PassExecution}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Len(t, chats.chats["u1"].Messages, 1)
}

func TestHandleMessage_FailureKeepsIdentity(t *testing.T) {
	svc, chats := newTestService(t, datatypes.ApiResponse{
		Status:       datatypes.ResponseFailure,
		Text:         "Sorry, I am unable to process your request.",
		ErrorMessage: "tool exploded",
	})

	msg := datatypes.InboundMessage{ID: "m1", UserID: "u1", Status: datatypes.PassTaskCreation}
	_, err := svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	stored := chats.chats["u1"].Messages[0]
	assert.Equal(t, "m1", stored.GetString("id"))
	assert.Equal(t, "failure", stored.GetString("status"))
	assert.Equal(t, "Sorry, I am unable to process your request.", stored.GetString("text"))
}
