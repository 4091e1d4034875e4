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

import "fmt"

// =============================================================================
// Resumption
// =============================================================================

// Resume computes the remaining task sequence for a confirmed plan.
//
// Description:
//
//	A confirmation envelope persists the full plan plus the last executed
//	task. Resuming means running everything strictly after the FIRST
//	occurrence of lastExecuted in allTasks. When lastExecuted is absent,
//	or already the final element, there is nothing left to run and the
//	pass must fail with the fixed apology text rather than silently
//	re-running anything.
//
//	Resume is a pure function: calling it again with the same arguments
//	yields the same slice.
//
// Outputs:
//
//	[]string - The remaining sub-sequence (a view into allTasks).
//	error - ErrResumptionExhausted-wrapped when resumption is impossible.
func Resume(lastExecuted string, allTasks []string) ([]string, error) {
	for i, t := range allTasks {
		if t != lastExecuted {
			continue
		}
		if i == len(allTasks)-1 {
			return nil, fmt.Errorf("%w: %q is the final task", ErrResumptionExhausted, lastExecuted)
		}
		return allTasks[i+1:], nil
	}
	return nil, fmt.Errorf("%w: %q is not in the plan", ErrResumptionExhausted, lastExecuted)
}
