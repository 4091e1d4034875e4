// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
	"github.com/AleutianAI/AleutianAssist/services/assistant/search"
)

// stubTokens satisfies TokenProvider without touching OAuth.
type stubTokens struct{}

func (stubTokens) TokenSource(context.Context, string) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}), nil
}

// stubEmbedder returns zero vectors; ranking order is irrelevant here.
type stubEmbedder struct{}

func (stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (s stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vs, _ := s.EmbedDocuments(ctx, []string{text})
	return vs[0], nil
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	model := &fakeModel{reply: "ok"}

	ranker, err := search.NewRanker(stubEmbedder{})
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	dateRanges, err := NewDateRangeDefiner(model)
	if err != nil {
		t.Fatalf("NewDateRangeDefiner: %v", err)
	}
	cal, err := NewCalendar(stubTokens{}, ranker, dateRanges, model, nil)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	email, err := NewEmail(stubTokens{}, model, nil)
	if err != nil {
		t.Fatalf("NewEmail: %v", err)
	}
	companion, err := NewCompanion(model)
	if err != nil {
		t.Fatalf("NewCompanion: %v", err)
	}
	eventDetails, err := NewEventDetailsDefiner(model)
	if err != nil {
		t.Fatalf("NewEventDetailsDefiner: %v", err)
	}
	emailDetails, err := NewEmailDetailsDefiner(model)
	if err != nil {
		t.Fatalf("NewEmailDetailsDefiner: %v", err)
	}
	return Deps{
		Calendar:     cal,
		Email:        email,
		Companion:    companion,
		EventDetails: eventDetails,
		EmailDetails: emailDetails,
	}
}

func TestBuildRegistry_Catalog(t *testing.T) {
	reg, err := BuildRegistry(testDeps(t))
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	confirmations := map[string]bool{
		"event-details-definer":           false,
		"calendar.create":                 true,
		"calendar.update":                 true,
		"calendar.retrieve_and_summarize": true,
		"calendar.find_one_event":         false,
		"calendar.delete":                 true,
		"email-details-definer":           false,
		"email.send":                      true,
		"email.retrieve":                  false,
		"companion.chat":                  true,
	}
	for name, wantConfirm := range confirmations {
		desc, err := reg.Resolve(name)
		if err != nil {
			t.Errorf("Resolve(%s): %v", name, err)
			continue
		}
		if desc.NeedsConfirmation != wantConfirm {
			t.Errorf("%s NeedsConfirmation = %v, want %v", name, desc.NeedsConfirmation, wantConfirm)
		}
	}
	if _, err := reg.Resolve("current_search"); err == nil {
		t.Error("current_search should be absent when WebSearch is nil")
	}
}

func TestBuildRegistry_MissingDep(t *testing.T) {
	deps := testDeps(t)
	deps.Companion = nil
	if _, err := BuildRegistry(deps); err == nil {
		t.Fatal("expected error for missing companion")
	}
}

func TestCompanionChat_FallbackTask(t *testing.T) {
	model := &fakeModel{reply: "Why did the gopher cross the road?"}
	companion, _ := NewCompanion(model)

	got, err := companion.Chat(context.Background(), datatypes.Body{}, "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.GetString("_text") == "" {
		t.Error("empty reply")
	}
	if model.prompt != companionFallbackTask {
		t.Errorf("prompt = %q, want fallback task", model.prompt)
	}
}

// planContexts satisfies orchestrator.ContextProvider with a fixed identity.
type planContexts struct{}

func (planContexts) GetUserContext(_ context.Context, _ string, _ []datatypes.Mention) (datatypes.UserContext, error) {
	return datatypes.UserContext{Name: "Grace", CalendarID: "grace@example.com"}, nil
}

func TestRegistry_UnbindableCreateFailsPass(t *testing.T) {
	// A plan that jumps straight to calendar.create with no definer step
	// leaves every event field unbound; the pass must fail on the missing
	// parameter instead of previewing an empty event.
	reg, err := BuildRegistry(testDeps(t))
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	planner, err := orchestrator.NewPlanner(&fakeModel{reply: "calendar.create"}, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	engine, err := orchestrator.NewEngine(reg, planner, planContexts{}, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	resp := engine.PlanAndExecute(context.Background(), datatypes.InboundMessage{
		ID:     "m1",
		Text:   "create an event",
		UserID: "u1",
		Status: datatypes.PassTaskCreation,
	})
	if resp.Status != datatypes.ResponseFailure {
		t.Fatalf("status = %q, want failure (err=%q)", resp.Status, resp.ErrorMessage)
	}
	if !strings.Contains(resp.ErrorMessage, "required parameter") {
		t.Errorf("ErrorMessage = %q, want a missing required parameter", resp.ErrorMessage)
	}
}
