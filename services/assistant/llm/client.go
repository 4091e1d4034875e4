// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the assistant's inference capability: rate-limited,
// instrumented single-prompt completion on top of langchaingo models. Two
// tiers are exposed because planning needs the strongest available model
// while detail extraction and summarization run fine on a cheaper one.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// =============================================================================
// Client
// =============================================================================

// Client wraps one langchaingo model with rate limiting and telemetry. It
// satisfies the orchestrator's Inferencer contract; no retries live here.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	model     llms.Model
	modelName string
	limiter   *rate.Limiter
	maxTokens int
	logger    *slog.Logger
}

// ClientConfig configures one inference client tier.
type ClientConfig struct {
	// Model is the provider model identifier, e.g. "gpt-4o".
	Model string

	// RequestsPerMinute bounds outbound inference calls. Zero disables
	// the limiter.
	RequestsPerMinute int

	// MaxTokens caps completion length. Zero uses the provider default.
	MaxTokens int
}

// NewClient builds a client over an already-constructed model. Used by
// tests and by callers that bring their own provider.
func NewClient(model llms.Model, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if model == nil {
		return nil, fmt.Errorf("llm client: nil model")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	return &Client{
		model:     model,
		modelName: cfg.Model,
		limiter:   limiter,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// NewOpenAIClient builds a client on the OpenAI chat completions API.
// The API key comes from OPENAI_API_KEY, per langchaingo convention.
func NewOpenAIClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	model, err := openai.New(openai.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("llm client: openai: %w", err)
	}
	return NewClient(model, cfg, logger)
}

// Infer sends one prompt and returns the completion text.
func (c *Client) Infer(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("assistant/llm")
	ctx, span := tracer.Start(ctx, "llm.infer")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", c.modelName),
		attribute.Int("prompt_chars", len(prompt)),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("inference rate limit wait: %w", err)
		}
	}

	opts := []llms.CallOption{llms.WithTemperature(0)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	start := time.Now()
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("inference: %w", err)
	}

	c.logger.Debug("inference call finished",
		slog.String("model", c.modelName),
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("completion_chars", len(out)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// Models bundles the two inference tiers the assistant uses.
type Models struct {
	// Smart handles planning, where decomposition mistakes cascade.
	Smart *Client

	// Fast handles detail extraction, date ranges, and summaries.
	Fast *Client
}

// NewModels builds both tiers on OpenAI.
func NewModels(smart, fast ClientConfig, logger *slog.Logger) (*Models, error) {
	smartClient, err := NewOpenAIClient(smart, logger)
	if err != nil {
		return nil, err
	}
	fastClient, err := NewOpenAIClient(fast, logger)
	if err != nil {
		return nil, err
	}
	return &Models{Smart: smartClient, Fast: fastClient}, nil
}
