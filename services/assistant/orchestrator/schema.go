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
// Typed Parameter Schemas
// =============================================================================

// FieldKind is the semantic type tag of one schema field. The original
// system matched raw values against the Python type of a default value;
// here compatibility is an explicit, closed check against decoded JSON
// value shapes.
type FieldKind int

const (
	// KindString matches string values.
	KindString FieldKind = iota

	// KindNumber matches float64 (all JSON numbers) and the native int
	// and int64 values tools may emit.
	KindNumber

	// KindBool matches bool values.
	KindBool

	// KindList matches []any and []map[string]any values, e.g. attendee
	// lists.
	KindList

	// KindObject matches map[string]any and datatypes.Body values.
	KindObject
)

// String returns the kind name used in diagnostics.
func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Matches reports whether a runtime value is compatible with the kind.
func (k FieldKind) Matches(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindList:
		switch v.(type) {
		case []any, []map[string]any, []string:
			return true
		}
		return false
	case KindObject:
		switch v.(type) {
		case map[string]any, datatypes.Body:
			return true
		}
		return false
	default:
		return false
	}
}

// FieldSpec describes one required parameter of a tool.
type FieldSpec struct {
	// Kind is the expected value shape.
	Kind FieldKind

	// Default is the value used when nothing compatible is found AND the
	// field is optional (Required=false). Required fields ignore Default.
	Default any

	// Required marks fields whose absence fails the pass with a
	// MissingParameterError.
	Required bool

	// Description documents the field for operators. Not used at runtime.
	Description string
}

// Schema is a tool's full parameter descriptor, keyed by field name.
// A nil Schema means the tool takes the raw merge of the default input and
// the immediately preceding task's output.
type Schema map[string]FieldSpec
