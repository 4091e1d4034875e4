// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator is the plan-and-execute core of the assistant: it
// turns a free-text request into an ordered task sequence, resolves each
// task's input from accumulated prior outputs, executes tools one at a
// time, and implements the resumable confirmation protocol that lets a
// multi-step plan suspend before any effectful action and resume exactly
// where it left off.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// =============================================================================
// Engine
// =============================================================================

// UserRequestLimit is the hard cap, in runes, applied to the request text
// before planning or binding. This is a security and cost control, not a UX
// choice: nothing downstream ever sees more than this much user text.
const UserRequestLimit = 500

// ContextProvider supplies the per-user ambient context injected into every
// tool's default input.
//
// Thread Safety: implementations must be safe for concurrent use.
type ContextProvider interface {
	GetUserContext(ctx context.Context, userID string, mentions []datatypes.Mention) (datatypes.UserContext, error)
}

// Engine runs whole passes: context fetch, plan or resume, loop execution,
// envelope assembly. One Engine serves all users; every pass owns its own
// history and task sequence, so there is no cross-request shared state here.
//
// Thread Safety: safe for concurrent use.
type Engine struct {
	registry  *Registry
	planner   *Planner
	loop      *Loop
	assembler *Assembler
	contexts  ContextProvider
	logger    *slog.Logger
}

// NewEngine wires the engine from its collaborators. All of them are
// required; there are no hidden process-wide fallbacks.
func NewEngine(registry *Registry, planner *Planner, contexts ContextProvider, logger *slog.Logger) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine: nil registry")
	}
	if planner == nil {
		return nil, fmt.Errorf("engine: nil planner")
	}
	if contexts == nil {
		return nil, fmt.Errorf("engine: nil context provider")
	}
	if logger == nil {
		logger = slog.Default()
	}
	loop, err := NewLoop(registry, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry:  registry,
		planner:   planner,
		loop:      loop,
		assembler: NewAssembler(),
		contexts:  contexts,
		logger:    logger,
	}, nil
}

// PlanAndExecute runs one pass for an inbound message and returns the
// terminal envelope. It never returns an error: every failure becomes a
// failure envelope so the transport always has something persistable.
func (e *Engine) PlanAndExecute(ctx context.Context, req datatypes.InboundMessage) datatypes.ApiResponse {
	start := time.Now()
	tracer := otel.Tracer("assistant/orchestrator")
	ctx, span := tracer.Start(ctx, "orchestrator.pass")
	defer span.End()
	span.SetAttributes(
		attribute.String("status", string(req.Status)),
		attribute.String("user_id", req.UserID),
	)

	resp := e.runPass(ctx, req)

	state := stateOf(resp)
	observePass(string(req.Status), state, time.Since(start))
	e.logger.Info("pass finished",
		slog.String("user_id", req.UserID),
		slog.String("status", string(req.Status)),
		slog.String("state", state.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp
}

func (e *Engine) runPass(ctx context.Context, req datatypes.InboundMessage) datatypes.ApiResponse {
	if req.Status == datatypes.PassDeclined {
		return e.assembler.Declined(req)
	}

	userContext, err := e.contexts.GetUserContext(ctx, req.UserID, req.Mentions)
	if err != nil {
		return e.fail(Outcome{Err: fmt.Errorf("user context: %w", err)}, req)
	}

	requestText := truncateRunes(req.Text, UserRequestLimit)

	// plan_body carried over from a prior confirmation pass rides on top
	// of the standing defaults, so confirmed previews win over context.
	defaultInput := datatypes.Body{
		"user_task":    requestText,
		"user_context": userContext.String(),
		"calendar_id":  userContext.CalendarID,
		"user_id":      req.UserID,
	}.Merge(req.Body)

	var tasks []string
	switch req.Status {
	case datatypes.PassTaskCreation, datatypes.PassLocal:
		tasks, err = e.planner.Plan(ctx, requestText, e.registry.Catalog())
		if err != nil {
			return e.fail(Outcome{Err: err}, req)
		}
	case datatypes.PassExecution:
		tasks, err = Resume(req.LastExecutedTask, req.AllTasks)
		if err != nil {
			e.logger.Warn("resumption exhausted",
				slog.String("user_id", req.UserID),
				slog.String("last_executed_task", req.LastExecutedTask),
			)
			return e.fail(Outcome{Err: err}, req)
		}
	default:
		return e.fail(Outcome{Err: fmt.Errorf("unsupported pass status %q", req.Status)}, req)
	}

	bypass := req.Status == datatypes.PassLocal || req.Status == datatypes.PassExecution
	outcome := e.loop.Run(ctx, tasks, defaultInput, bypass)

	switch outcome.State {
	case StateAwaitingConfirmation:
		return e.assembler.Confirmation(outcome, req)
	case StateSucceeded:
		return e.assembler.Success(outcome, req)
	default:
		return e.fail(outcome, req)
	}
}

func (e *Engine) fail(outcome Outcome, req datatypes.InboundMessage) datatypes.ApiResponse {
	if outcome.Err != nil {
		e.logger.Error("pass failed",
			slog.String("user_id", req.UserID),
			slog.String("error", outcome.Err.Error()),
		)
	}
	return e.assembler.Failure(outcome, req, string(debug.Stack()))
}

// stateOf recovers the loop state from an assembled envelope, for metrics.
func stateOf(resp datatypes.ApiResponse) State {
	switch resp.Status {
	case datatypes.ResponseConfirmation:
		return StateAwaitingConfirmation
	case datatypes.ResponseFailure:
		return StateFailed
	default:
		if resp.Text == declineAckText {
			return StateDeclined
		}
		return StateSucceeded
	}
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
