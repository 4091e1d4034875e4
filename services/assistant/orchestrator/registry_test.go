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
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

func noopInvoke(_ context.Context, _ datatypes.Body, _ Mode) (datatypes.Body, error) {
	return datatypes.Body{}, nil
}

func TestRegistry_ResolveKnownTask(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Name: "calendar.create", Invoke: noopInvoke, NeedsConfirmation: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	d, err := reg.Resolve("calendar.create")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !d.NeedsConfirmation {
		t.Error("descriptor lost its confirmation flag")
	}
}

func TestRegistry_ResolveUnknownTask(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("no.such.tool")
	if !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestRegistry_RejectsInvalidDescriptors(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Descriptor{Invoke: noopInvoke}); err == nil {
		t.Error("expected error for unnamed descriptor")
	}
	if err := reg.Register(Descriptor{Name: "x"}); err == nil {
		t.Error("expected error for descriptor without capability")
	}
}

func TestRegistry_CatalogSortedByName(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Descriptor{Name: "companion.chat", Description: "chat", Invoke: noopInvoke})
	_ = reg.Register(Descriptor{Name: "calendar.create", Invoke: noopInvoke})

	catalog := reg.Catalog()
	if len(catalog) != 2 {
		t.Fatalf("catalog length = %d", len(catalog))
	}
	if catalog[0].Name != "calendar.create" || catalog[1].Name != "companion.chat" {
		t.Errorf("catalog not in name order: %v", catalog)
	}
}
