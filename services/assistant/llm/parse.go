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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// Completion Parsing Helpers
// =============================================================================

// nonNestedJSONPattern matches flat JSON objects inside free text. Model
// completions wrap extracted fields in prose more often than not, so the
// definer tools scan rather than unmarshal the whole completion.
var nonNestedJSONPattern = regexp.MustCompile(`\{[^{]*?\}`)

// ExtractJSONObject returns the first parseable flat JSON object found in
// text. It cannot handle nested objects; the definer prompts ask for flat
// field maps precisely so this stays sufficient.
func ExtractJSONObject(text string) (map[string]any, error) {
	for _, match := range nonNestedJSONPattern.FindAllString(text, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(match), &obj); err == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("no parseable JSON object in completion %q", clip(text, 120))
}

// ExtractBetween returns the text between the first occurrence of start and
// the following occurrence of end, or "" when the wrappers are absent.
func ExtractBetween(text, start, end string) string {
	i := strings.Index(text, start)
	if i < 0 {
		return ""
	}
	rest := text[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
