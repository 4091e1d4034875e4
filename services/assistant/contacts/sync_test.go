// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package contacts

import (
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

func TestMergeProfiles_DeduplicatesByEmail(t *testing.T) {
	attendees := []datatypes.Profile{
		{Name: "Sarah Smith", Email: "sarah@example.com"},
		{Name: "Duplicate Sarah", Email: "sarah@example.com"},
	}
	connections := []datatypes.Profile{
		{Name: "Sarah From Contacts", Email: "sarah@example.com"},
		{Name: "David Jones", Email: "david@example.com"},
	}

	got := MergeProfiles(attendees, connections)
	if len(got) != 2 {
		t.Fatalf("got %d profiles, want 2: %+v", len(got), got)
	}
	// Attendee entry wins over the saved contact for the same address.
	if got[0].Name != "Sarah Smith" {
		t.Errorf("first profile = %q, want attendee entry", got[0].Name)
	}
}

func TestMergeProfiles_AssignsIDAndUsername(t *testing.T) {
	got := MergeProfiles([]datatypes.Profile{{Name: "Sarah Smith", Email: "sarah@example.com"}}, nil)
	if len(got) != 1 {
		t.Fatalf("got %d profiles", len(got))
	}
	if got[0].ID == "" {
		t.Error("missing id")
	}
	if got[0].Username != "SarahSmith" {
		t.Errorf("username = %q, want SarahSmith", got[0].Username)
	}
}

func TestMergeProfiles_SkipsEmptyEmail(t *testing.T) {
	got := MergeProfiles([]datatypes.Profile{{Name: "No Address"}}, nil)
	if len(got) != 0 {
		t.Errorf("got %d profiles, want 0", len(got))
	}
}

func TestLocalPart(t *testing.T) {
	if got := localPart("sarah@example.com"); got != "sarah" {
		t.Errorf("localPart = %q", got)
	}
	if got := localPart("not-an-email"); got != "not-an-email" {
		t.Errorf("localPart = %q", got)
	}
}
