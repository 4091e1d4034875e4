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
	"errors"
	"fmt"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

// Every error produced by a pass falls into one of the sentinel families
// below. All of them terminate the pass with a failure envelope; none of
// them corrupt persisted state beyond overwriting it with that envelope.
var (
	// ErrPlanning indicates the inference capability returned a task list
	// the planner could not parse.
	ErrPlanning = errors.New("planning failed")

	// ErrUnknownTask indicates a planned task has no registry entry.
	ErrUnknownTask = errors.New("unknown task")

	// ErrEmptyPlan indicates the planner produced zero tasks. An empty
	// plan fails loudly rather than falling through to an empty reply.
	ErrEmptyPlan = errors.New("empty plan")

	// ErrResumptionExhausted indicates a resume request whose last executed
	// task is the final element of the plan, or not in the plan at all.
	ErrResumptionExhausted = errors.New("resumption exhausted")

	// ErrToolExecution wraps any error returned by a tool capability.
	ErrToolExecution = errors.New("tool execution failed")
)

// MissingParameterError reports a required schema field the binder could not
// satisfy from the default input or the execution history.
type MissingParameterError struct {
	Field string
	Kind  FieldKind
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter %q of kind %s not found in pass history", e.Field, e.Kind)
}
