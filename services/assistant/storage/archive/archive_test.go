// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2025, time.September, 1, 12, 30, 45, 0, time.UTC)
	got := ObjectName("user-1", at)
	want := "transcripts/user-1/20250901T123045Z.json"
	if got != want {
		t.Errorf("ObjectName = %q, want %q", got, want)
	}
}

func TestObjectName_NormalizesZone(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	at := time.Date(2025, time.September, 1, 4, 0, 0, 0, loc)
	got := ObjectName("u", at)
	want := "transcripts/u/20250901T120000Z.json"
	if got != want {
		t.Errorf("ObjectName = %q, want %q", got, want)
	}
}
