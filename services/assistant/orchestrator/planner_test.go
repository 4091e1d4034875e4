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
	"errors"
	"reflect"
	"strings"
	"testing"
)

// fakeInferencer returns a canned completion and records the prompt.
type fakeInferencer struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeInferencer) Infer(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var testCatalog = []CatalogEntry{
	{Name: "calendar.create", Description: ""},
	{Name: "calendar.find_one_event", Description: "find the closest event that match the user request"},
	{Name: "companion.chat", Description: "chat with a friendly companion who can help brainstorm and have conversations"},
}

func TestPlanner_ParsesCommaSeparatedList(t *testing.T) {
	llm := &fakeInferencer{response: "calendar.find_one_event, event-details-definer, calendar.update"}
	planner, err := NewPlanner(llm, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	tasks, err := planner.Plan(context.Background(), "move my lunch to 2pm", testCatalog)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{"calendar.find_one_event", "event-details-definer", "calendar.update"}
	if !reflect.DeepEqual(tasks, want) {
		t.Errorf("tasks = %v, want %v", tasks, want)
	}
}

func TestPlanner_PromptCarriesCatalogAndRequest(t *testing.T) {
	llm := &fakeInferencer{response: "companion.chat"}
	planner, err := NewPlanner(llm, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	if _, err := planner.Plan(context.Background(), "tell me a joke", testCatalog); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("expected one inference call, got %d", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "tell me a joke") {
		t.Error("prompt missing the request text")
	}
	if !strings.Contains(prompt, "calendar.find_one_event: find the closest event") {
		t.Error("prompt missing a catalog line")
	}
	if !strings.Contains(prompt, "comma separated") {
		t.Error("prompt missing the format instructions")
	}
}

func TestPlanner_InferenceErrorIsPlanningError(t *testing.T) {
	llm := &fakeInferencer{err: errors.New("upstream 500")}
	planner, err := NewPlanner(llm, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	_, err = planner.Plan(context.Background(), "anything", testCatalog)
	if !errors.Is(err, ErrPlanning) {
		t.Errorf("expected ErrPlanning, got %v", err)
	}
}

func TestPlanner_NoValidationOfIdentifiers(t *testing.T) {
	// Unknown identifiers are the registry's problem, not the planner's.
	llm := &fakeInferencer{response: "not.a.real.tool, also.fake"}
	planner, err := NewPlanner(llm, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	tasks, err := planner.Plan(context.Background(), "x", testCatalog)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("expected the raw parsed sequence, got %v", tasks)
	}
}

func TestNewPlanner_NilInferencer(t *testing.T) {
	if _, err := NewPlanner(nil, nil); err == nil {
		t.Error("expected error for nil inferencer")
	}
}
