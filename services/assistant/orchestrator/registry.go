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
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// =============================================================================
// Tool Registry
// =============================================================================

// Mode tells a tool whether it may perform its effectful action.
type Mode string

const (
	// ModeConfirmation asks the tool for a side-effect-free preview. Every
	// tool implementation must honor this: a confirmation-mode call is
	// read-only.
	ModeConfirmation Mode = "confirmation"

	// ModeExecution allows the effectful action.
	ModeExecution Mode = "execution"
)

// InvokeFunc is the uniform tool capability contract. Input is the bound
// parameter set; the returned body becomes this task's execution record and
// the next task's candidate input.
type InvokeFunc func(ctx context.Context, input datatypes.Body, mode Mode) (datatypes.Body, error)

// Descriptor is one registered tool: its capability, whether an effectful
// call needs user confirmation first, and its parameter schema (nil for
// raw-merge tools).
type Descriptor struct {
	Name              string
	Description       string
	Invoke            InvokeFunc
	NeedsConfirmation bool
	Schema            Schema
}

// Registry maps task identifiers to tool descriptors. It is populated once
// at process start and read-only afterwards.
//
// Thread Safety: safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register adds a descriptor. Registering the same name twice replaces the
// earlier entry; callers are expected to register each tool exactly once
// during startup.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("register: descriptor has no name")
	}
	if d.Invoke == nil {
		return fmt.Errorf("register %q: descriptor has no capability", d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[d.Name] = d
	return nil
}

// Resolve returns the descriptor for a task identifier. An unknown
// identifier fails the whole pass at the caller, never skips the task.
func (r *Registry) Resolve(taskID string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[taskID]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	return d, nil
}

// Catalog returns the name -> one-line description map fed to the planner
// prompt, in stable name order.
func (r *Registry) Catalog() []CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CatalogEntry, 0, len(r.entries))
	for name, d := range r.entries {
		out = append(out, CatalogEntry{Name: name, Description: d.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CatalogEntry is one planner-visible tool listing.
type CatalogEntry struct {
	Name        string
	Description string
}
