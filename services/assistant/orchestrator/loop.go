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
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// =============================================================================
// Execution Loop
// =============================================================================

// SentinelTask is the no-op task identifier recorded as lastExecuted when a
// plan halts or finishes before any second task exists. Kept as the literal
// existing chat clients already understand.
const SentinelTask = "dummy-tool"

// State is the terminal (or halt) state of one pass through the loop.
type State int

const (
	// StateRunning is the in-flight state; never returned to callers.
	StateRunning State = iota

	// StateAwaitingConfirmation means the loop halted before an effectful
	// action and is waiting for explicit user approval.
	StateAwaitingConfirmation

	// StateSucceeded means every task executed.
	StateSucceeded

	// StateFailed means the pass terminated on an error.
	StateFailed

	// StateDeclined means the user declined a confirmation. Produced by
	// the engine's decline path, never by the loop itself.
	StateDeclined
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

// Outcome is what one pass through the loop produced. The assembler shapes
// it into the outward envelope.
type Outcome struct {
	State State

	// Tasks is the full sequence the pass ran against (the resumable
	// all_tasks on confirmation halts).
	Tasks []string

	// LastExecuted is the task before the halting/final one, or
	// SentinelTask when no such task exists.
	LastExecuted string

	// BodyType is the identifier of the previewed or final task.
	BodyType string

	// Output is the previewed or final task's output body.
	Output datatypes.Body

	// Err is the terminal error on StateFailed.
	Err error
}

// Loop is the orchestration state machine. It iterates a task sequence,
// binds each task's input from accumulated history, invokes tools strictly
// in order, and decides after every step whether to continue, halt for
// confirmation, or finish.
//
// Thread Safety: safe for concurrent use; each Run owns its history.
type Loop struct {
	registry *Registry
	logger   *slog.Logger
}

// NewLoop builds the loop over a populated registry.
func NewLoop(registry *Registry, logger *slog.Logger) (*Loop, error) {
	if registry == nil {
		return nil, fmt.Errorf("loop: nil registry")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{registry: registry, logger: logger}, nil
}

// Run executes one pass.
//
// Description:
//
//	Per step: resolve the task (unknown fails the whole pass), decide the
//	mode, bind parameters, invoke, record the exchange. A confirmation-
//	mode step halts the loop immediately after the tool returned its
//	preview, even when more tasks remain; the preview becomes the
//	confirmation prompt body and nothing effectful has happened yet.
//	Tool panics are recovered and treated as tool execution errors so a
//	misbehaving tool cannot take the whole process down.
//
// Inputs:
//
//	ctx - Context for cancellation; tools receive it unchanged.
//	tasks - The task sequence to run.
//	defaultInput - The pass-wide default tool input.
//	bypassConfirmation - True on "local" and "execution" passes, where
//	    confirmation-requiring tools run in execution mode directly.
//
// Outputs:
//
//	Outcome - Terminal state plus envelope ingredients.
func (l *Loop) Run(ctx context.Context, tasks []string, defaultInput datatypes.Body, bypassConfirmation bool) Outcome {
	tracer := otel.Tracer("assistant/orchestrator")
	ctx, span := tracer.Start(ctx, "orchestrator.loop")
	defer span.End()
	span.SetAttributes(
		attribute.Int("task_count", len(tasks)),
		attribute.Bool("bypass_confirmation", bypassConfirmation),
	)

	if len(tasks) == 0 {
		// The original left the envelope nearly empty here. Fail loudly
		// instead; an empty plan is a planner defect, not a success.
		span.SetStatus(codes.Error, "empty plan")
		return Outcome{State: StateFailed, Err: ErrEmptyPlan}
	}

	history := make(History, 0, len(tasks))

	for i, task := range tasks {
		desc, err := l.registry.Resolve(task)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Outcome{State: StateFailed, Tasks: tasks, Err: err}
		}

		mode := ModeExecution
		if desc.NeedsConfirmation && !bypassConfirmation {
			mode = ModeConfirmation
		}

		input, err := Bind(history, defaultInput, desc.Schema)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Outcome{State: StateFailed, Tasks: tasks, Err: err}
		}

		l.logger.Info("executing task",
			slog.String("task", task),
			slog.Int("index", i),
			slog.String("mode", string(mode)),
			slog.Int("history_len", len(history)),
		)

		start := time.Now()
		output, err := l.invoke(ctx, desc, input, mode)
		observeToolInvocation(task, mode, err, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Outcome{State: StateFailed, Tasks: tasks, Err: err}
		}

		history = append(history, Exchange{Input: input, Output: output})

		if mode == ModeConfirmation {
			span.SetAttributes(attribute.String("halted_at", task))
			return Outcome{
				State:        StateAwaitingConfirmation,
				Tasks:        tasks,
				LastExecuted: taskBefore(tasks, i),
				BodyType:     task,
				Output:       output,
			}
		}

		if i == len(tasks)-1 {
			return Outcome{
				State:        StateSucceeded,
				Tasks:        tasks,
				LastExecuted: taskBefore(tasks, i),
				BodyType:     task,
				Output:       output,
			}
		}
	}

	// Unreachable: the final iteration always returns.
	return Outcome{State: StateFailed, Tasks: tasks, Err: fmt.Errorf("loop fell through")}
}

// invoke calls the tool capability, converting panics and errors into the
// ErrToolExecution family with a captured stack for operator diagnostics.
func (l *Loop) invoke(ctx context.Context, desc Descriptor, input datatypes.Body, mode Mode) (out datatypes.Body, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v\n%s", ErrToolExecution, desc.Name, r, debug.Stack())
		}
	}()

	out, err = desc.Invoke(ctx, input, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolExecution, desc.Name, err)
	}
	if out == nil {
		out = datatypes.Body{}
	}
	return out, nil
}

// taskBefore returns the task preceding index i, or the sentinel when i is
// the first task.
func taskBefore(tasks []string, i int) string {
	if i == 0 {
		return SentinelTask
	}
	return tasks[i-1]
}
