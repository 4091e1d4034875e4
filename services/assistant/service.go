// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assistant is the service layer of the task-execution assistant:
// it accepts inbound chat messages, runs one plan-and-execute pass per
// message, and writes the resulting envelope back into the user's chat
// according to the pass type.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// Chat document statuses visible to clients. "loading" while a pass runs,
// "ready" when the chat can accept the next message.
const (
	ChatStatusLoading = "loading"
	ChatStatusReady   = "ready"
)

// ChatStore is the slice of storage the service needs.
type ChatStore interface {
	GetChat(userID string) (datatypes.ChatState, error)
	PutChat(userID string, chat datatypes.ChatState) error
}

// PassRunner runs one plan-and-execute pass. orchestrator.Engine satisfies
// this; tests substitute a canned runner.
type PassRunner interface {
	PlanAndExecute(ctx context.Context, req datatypes.InboundMessage) datatypes.ApiResponse
}

// Service glues the transport to the engine and owns chat write-back.
//
// Thread Safety: safe for concurrent use. Concurrent passes for the SAME
// user race on the chat document; clients serialize per user via the
// loading/ready status.
type Service struct {
	engine PassRunner
	chats  ChatStore
	logger *slog.Logger
	newID  func() string

	hub *Hub
}

// NewService wires the service.
func NewService(engine PassRunner, chats ChatStore, logger *slog.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("assistant: nil engine")
	}
	if chats == nil {
		return nil, fmt.Errorf("assistant: nil chat store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine: engine,
		chats:  chats,
		logger: logger,
		newID:  uuid.NewString,
		hub:    NewHub(logger),
	}, nil
}

// HandleMessage runs one pass for msg and persists the outcome into the
// user's chat. The returned envelope is also pushed to any connected
// websocket for the user.
func (s *Service) HandleMessage(ctx context.Context, msg datatypes.InboundMessage) (datatypes.ApiResponse, error) {
	chat, err := s.chats.GetChat(msg.UserID)
	if err != nil {
		return datatypes.ApiResponse{}, fmt.Errorf("assistant: load chat %s: %w", msg.UserID, err)
	}

	chat.Status = ChatStatusLoading
	if err := s.chats.PutChat(msg.UserID, chat); err != nil {
		return datatypes.ApiResponse{}, fmt.Errorf("assistant: mark chat loading: %w", err)
	}

	resp := s.engine.PlanAndExecute(ctx, msg)

	record := s.outboundRecord(msg, resp)
	chat.Messages = applyWriteBack(chat.Messages, msg, record)
	chat.Status = ChatStatusReady
	if err := s.chats.PutChat(msg.UserID, chat); err != nil {
		return resp, fmt.Errorf("assistant: persist chat %s: %w", msg.UserID, err)
	}

	s.hub.Push(msg.UserID, resp)
	return resp, nil
}

// outboundRecord builds the chat message persisted for one envelope. The
// inbound message's fields are the base; the envelope overrides the fields
// the pass changed, including the reply body and body_type so event links
// and reply text reach chat state. Confirmation responses become a NEW
// message (fresh id, system sender); success and failure keep the inbound
// message's identity.
func (s *Service) outboundRecord(msg datatypes.InboundMessage, resp datatypes.ApiResponse) datatypes.Body {
	record := datatypes.Body{
		"text":               msg.Text,
		"status":             string(msg.Status),
		"last_executed_task": msg.LastExecutedTask,
		"all_tasks":          anyList(msg.AllTasks),
		"body":               map[string]any(msg.Body),
		"body_type":          msg.BodyType,
		"created_at":         msg.CreatedAt,
		"mentions":           mentionList(msg.Mentions),
		"sender":             msg.Sender,
		"id":                 msg.ID,
	}

	record["text"] = resp.Text
	record["status"] = string(resp.Status)
	record["body"] = map[string]any(resp.Body)
	record["body_type"] = resp.BodyType
	if resp.Status == datatypes.ResponseConfirmation {
		record["all_tasks"] = anyList(resp.AllTasks)
		record["last_executed_task"] = resp.LastExecutedTask
		record["sender"] = "system"
		record["id"] = s.newID()
	}
	return record
}

// applyWriteBack places the outbound record into the message list. A
// task_creation or local pass appends; an execution or declined pass
// replaces the message being resumed, matched by id.
func applyWriteBack(messages []datatypes.Body, msg datatypes.InboundMessage, record datatypes.Body) []datatypes.Body {
	switch msg.Status {
	case datatypes.PassExecution, datatypes.PassDeclined:
		for i, m := range messages {
			if m.GetString("id") == msg.ID {
				messages[i] = record
				return messages
			}
		}
		// Resumed message vanished from the chat; keep the outcome anyway.
		return append(messages, record)
	default:
		return append(messages, record)
	}
}

func anyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func mentionList(mentions []datatypes.Mention) []any {
	out := make([]any, len(mentions))
	for i, m := range mentions {
		out[i] = map[string]any{
			"username": m.Username,
			"name":     m.Name,
			"email":    m.Email,
		}
	}
	return out
}

// ensure Engine keeps satisfying PassRunner.
var _ PassRunner = (*orchestrator.Engine)(nil)
