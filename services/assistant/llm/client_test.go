// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// cannedModel satisfies llms.Model with a fixed completion.
type cannedModel struct {
	completion string
	err        error
	calls      int
}

func (m *cannedModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.completion}},
	}, nil
}

func (m *cannedModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.completion, nil
}

func TestClient_Infer(t *testing.T) {
	model := &cannedModel{completion: "companion.chat"}
	client, err := NewClient(model, ClientConfig{Model: "test-model"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Infer(context.Background(), "plan this")
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if out != "companion.chat" {
		t.Errorf("out = %q", out)
	}
}

func TestClient_InferPropagatesErrors(t *testing.T) {
	model := &cannedModel{err: errors.New("upstream 429")}
	client, err := NewClient(model, ClientConfig{}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Infer(context.Background(), "x"); err == nil {
		t.Error("expected upstream error to propagate")
	}
}

func TestClient_RateLimiterHonorsCancelledContext(t *testing.T) {
	model := &cannedModel{completion: "ok"}
	client, err := NewClient(model, ClientConfig{RequestsPerMinute: 1}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	// Burn the burst, then a cancelled context must fail fast instead of
	// blocking for the next token.
	if _, err := client.Infer(context.Background(), "first"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Infer(ctx, "second"); err == nil {
		t.Error("expected rate limit wait to fail on cancelled context")
	}
}

func TestNewClient_NilModel(t *testing.T) {
	if _, err := NewClient(nil, ClientConfig{}, nil); err == nil {
		t.Error("expected error for nil model")
	}
}
