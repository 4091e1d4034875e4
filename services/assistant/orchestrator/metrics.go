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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Orchestrator
// =============================================================================

var (
	// passesTotal counts plan-and-execute passes by entry status and
	// terminal state.
	// Labels: status (task_creation, execution, local, declined),
	//         state (succeeded, failed, awaiting_confirmation, declined)
	passesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "orchestrator",
		Name:      "passes_total",
		Help:      "Total plan-and-execute passes by entry status and terminal state",
	}, []string{"status", "state"})

	// passDurationSeconds measures full pass latency including planning.
	passDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistant",
		Subsystem: "orchestrator",
		Name:      "pass_duration_seconds",
		Help:      "Plan-and-execute pass latency by entry status",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"status"})

	// toolInvocationsTotal counts tool invocations.
	// Labels: tool, mode (confirmation, execution), result (ok, error)
	toolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "orchestrator",
		Name:      "tool_invocations_total",
		Help:      "Total tool invocations by tool, mode, and result",
	}, []string{"tool", "mode", "result"})

	// toolDurationSeconds measures individual tool invocation latency.
	toolDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assistant",
		Subsystem: "orchestrator",
		Name:      "tool_duration_seconds",
		Help:      "Tool invocation latency by tool",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"tool"})
)

// observeToolInvocation records counters and latency for one tool call.
func observeToolInvocation(tool string, mode Mode, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	toolInvocationsTotal.WithLabelValues(tool, string(mode), result).Inc()
	toolDurationSeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// observePass records one finished pass.
func observePass(status string, state State, elapsed time.Duration) {
	passesTotal.WithLabelValues(status, state.String()).Inc()
	passDurationSeconds.WithLabelValues(status).Observe(elapsed.Seconds())
}
