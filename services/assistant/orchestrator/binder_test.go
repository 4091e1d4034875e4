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
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

func TestBind_NilSchema_RawMerge(t *testing.T) {
	defaults := datatypes.Body{"user_task": "find lunch", "calendar_id": "cal-1"}
	history := History{
		{Input: datatypes.Body{"a": "1"}, Output: datatypes.Body{"event_id": "old"}},
		{Input: datatypes.Body{"b": "2"}, Output: datatypes.Body{"event_id": "new", "calendar_id": "cal-2"}},
	}

	bound, err := Bind(history, defaults, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exactly {**defaults, **lastOutput}: the last output wins on conflict
	// and earlier history entries do not participate.
	if bound["user_task"] != "find lunch" {
		t.Errorf("expected user_task from defaults, got %v", bound["user_task"])
	}
	if bound["event_id"] != "new" {
		t.Errorf("expected event_id from last output, got %v", bound["event_id"])
	}
	if bound["calendar_id"] != "cal-2" {
		t.Errorf("expected last output to override defaults, got %v", bound["calendar_id"])
	}
	if _, ok := bound["a"]; ok {
		t.Error("earlier history input leaked into raw merge")
	}
}

func TestBind_NilSchema_EmptyHistory(t *testing.T) {
	defaults := datatypes.Body{"user_task": "x"}
	bound, err := Bind(nil, defaults, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bound) != 1 || bound["user_task"] != "x" {
		t.Errorf("expected exactly the defaults, got %v", bound)
	}
}

func TestBind_Schema_FirstMatchWins(t *testing.T) {
	// The scan order is defaults first, then history oldest to newest.
	// The FIRST compatible value wins even when a newer one exists.
	defaults := datatypes.Body{"summary": "from-defaults"}
	history := History{
		{Input: datatypes.Body{}, Output: datatypes.Body{"summary": "from-task-0"}},
		{Input: datatypes.Body{}, Output: datatypes.Body{"summary": "from-task-1"}},
	}
	schema := Schema{
		"summary": {Kind: KindString, Required: true},
	}

	bound, err := Bind(history, defaults, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound["summary"] != "from-defaults" {
		t.Errorf("expected first match from defaults, got %v", bound["summary"])
	}
}

func TestBind_Schema_SkipsIncompatibleKinds(t *testing.T) {
	// A key with the right name but wrong shape must not satisfy the field.
	defaults := datatypes.Body{"attendees": "not-a-list"}
	history := History{
		{Input: datatypes.Body{}, Output: datatypes.Body{"attendees": []any{map[string]any{"email": "a@b.c"}}}},
	}
	schema := Schema{
		"attendees": {Kind: KindList, Required: true},
	}

	bound, err := Bind(history, defaults, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := bound["attendees"].([]any)
	if !ok || len(list) != 1 {
		t.Errorf("expected attendee list from history, got %v", bound["attendees"])
	}
}

func TestBind_Schema_MissingRequiredField(t *testing.T) {
	defaults := datatypes.Body{"user_task": "x"}
	schema := Schema{
		"event_id": {Kind: KindString, Required: true},
	}

	_, err := Bind(nil, defaults, schema)
	if err == nil {
		t.Fatal("expected MissingParameterError")
	}
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingParameterError, got %T", err)
	}
	if missing.Field != "event_id" {
		t.Errorf("expected field event_id named, got %q", missing.Field)
	}
	if missing.Kind != KindString {
		t.Errorf("expected kind string, got %s", missing.Kind)
	}
}

func TestBind_Schema_OptionalFieldDefaults(t *testing.T) {
	schema := Schema{
		"time_zone": {Kind: KindString, Default: "America/Los_Angeles"},
	}
	bound, err := Bind(nil, datatypes.Body{}, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound["time_zone"] != "America/Los_Angeles" {
		t.Errorf("expected default time zone, got %v", bound["time_zone"])
	}
}

func TestBind_Schema_ScansInputsBeforeOutputs(t *testing.T) {
	history := History{
		{
			Input:  datatypes.Body{"location": "input-loc"},
			Output: datatypes.Body{"location": "output-loc"},
		},
	}
	schema := Schema{"location": {Kind: KindString, Required: true}}

	bound, err := Bind(history, datatypes.Body{}, schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound["location"] != "input-loc" {
		t.Errorf("expected the exchange input scanned before its output, got %v", bound["location"])
	}
}

func TestFieldKind_Matches(t *testing.T) {
	cases := []struct {
		name string
		kind FieldKind
		v    any
		want bool
	}{
		{"string ok", KindString, "x", true},
		{"string vs number", KindString, 1.0, false},
		{"number float64", KindNumber, 3.5, true},
		{"number int", KindNumber, 3, true},
		{"bool ok", KindBool, true, true},
		{"list any", KindList, []any{"a"}, true},
		{"list maps", KindList, []map[string]any{{"a": 1}}, true},
		{"list vs string", KindList, "a,b", false},
		{"object map", KindObject, map[string]any{"a": 1}, true},
		{"object body", KindObject, datatypes.Body{"a": 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.kind.Matches(tc.v); got != tc.want {
				t.Errorf("Matches(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}
