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

import "github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"

// =============================================================================
// Parameter Binding
// =============================================================================

// Exchange is the (input, output) record of one executed task.
type Exchange struct {
	Input  datatypes.Body
	Output datatypes.Body
}

// History is the append-only execution record of one pass, in execution
// order: index i is the record for the i-th executed task. It is created
// fresh per pass and never persisted.
type History []Exchange

// LastOutput returns the output of the most recently executed task, or nil
// when nothing has executed yet.
func (h History) LastOutput() datatypes.Body {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1].Output
}

// Bind computes the concrete input for the next task.
//
// Description:
//
//	With a nil schema the tool accepts the raw merge of the default input
//	and the immediately preceding task's output, later keys winning.
//
//	With a schema, each field is filled with the FIRST compatible value
//	found scanning the default input and then the history oldest to
//	newest (input before output within each exchange). First match wins
//	even when a newer value exists; task-chaining prompts depend on that
//	order, so it is a load-bearing contract, not an accident. Optional
//	fields fall back to their declared default so the bound input always
//	contains every schema key.
//
// Inputs:
//
//	history - Execution record of the pass so far.
//	defaultInput - The pass-wide default tool input (user task, context,
//	    calendar id, carried-over confirmation body).
//	schema - The target tool's parameter schema, or nil.
//
// Outputs:
//
//	datatypes.Body - The bound input.
//	error - *MissingParameterError when a required field has no compatible
//	    value anywhere in the scan.
func Bind(history History, defaultInput datatypes.Body, schema Schema) (datatypes.Body, error) {
	if schema == nil {
		return defaultInput.Merge(history.LastOutput()), nil
	}

	sources := make([]datatypes.Body, 0, 1+2*len(history))
	sources = append(sources, defaultInput)
	for _, ex := range history {
		sources = append(sources, ex.Input, ex.Output)
	}

	bound := make(datatypes.Body, len(schema))
	for field, spec := range schema {
		v, ok := scanFirst(sources, field, spec.Kind)
		if ok {
			bound[field] = v
			continue
		}
		if spec.Required {
			return nil, &MissingParameterError{Field: field, Kind: spec.Kind}
		}
		bound[field] = spec.Default
	}
	return bound, nil
}

// scanFirst returns the first kind-compatible value for field across the
// sources, in order.
func scanFirst(sources []datatypes.Body, field string, kind FieldKind) (any, bool) {
	for _, src := range sources {
		v, present := src[field]
		if present && kind.Matches(v) {
			return v, true
		}
	}
	return nil, false
}
