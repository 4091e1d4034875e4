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
	"fmt"

	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// Deps carries the wired tool implementations BuildRegistry assembles the
// catalog from. WebSearch is optional; the rest are required.
type Deps struct {
	Calendar     *Calendar
	Email        *Email
	Companion    *Companion
	EventDetails *EventDetailsDefiner
	EmailDetails *EmailDetailsDefiner
	WebSearch    *WebSearch
}

// BuildRegistry assembles the planner-visible task catalog. Task names are
// wire format: they appear in plans, in persisted all_tasks lists, and in
// body_type fields, so renaming one invalidates in-flight confirmations.
func BuildRegistry(d Deps) (*orchestrator.Registry, error) {
	if d.Calendar == nil || d.Email == nil || d.Companion == nil || d.EventDetails == nil || d.EmailDetails == nil {
		return nil, fmt.Errorf("tools: missing required tool in registry deps")
	}

	reg := orchestrator.NewRegistry()
	descriptors := []orchestrator.Descriptor{
		{
			Name:   "event-details-definer",
			Invoke: d.EventDetails.Define,
		},
		{
			Name:              "calendar.create",
			Invoke:            d.Calendar.CreateEvent,
			NeedsConfirmation: true,
			Schema:            CalendarCreateSchema(),
		},
		{
			Name:              "calendar.update",
			Invoke:            d.Calendar.UpdateEvent,
			NeedsConfirmation: true,
			Schema:            CalendarUpdateSchema(),
		},
		{
			Name:              "calendar.retrieve_and_summarize",
			Description:       "retrieve events based on user request and summarize",
			Invoke:            d.Calendar.RetrieveAndSummarize,
			NeedsConfirmation: true,
			Schema:            CalendarRetrieveSchema(),
		},
		{
			Name:        "calendar.find_one_event",
			Description: "find the closest event that match the user request",
			Invoke:      d.Calendar.FindEvent,
			Schema:      CalendarFindSchema(),
		},
		{
			Name:              "calendar.delete",
			Invoke:            d.Calendar.DeleteEvent,
			NeedsConfirmation: true,
			Schema:            CalendarDeleteSchema(),
		},
		{
			Name:   "email-details-definer",
			Invoke: d.EmailDetails.Define,
		},
		{
			Name:              "email.send",
			Invoke:            d.Email.Send,
			NeedsConfirmation: true,
			Schema:            EmailSendSchema(),
		},
		{
			Name:   "email.retrieve",
			Invoke: d.Email.RetrieveAndSummarize,
			Schema: EmailRetrieveSchema(),
		},
		{
			Name:              "companion.chat",
			Description:       "chat with a friendly companion who can help brainstorm and have conversations",
			Invoke:            d.Companion.Chat,
			NeedsConfirmation: true,
		},
	}
	if d.WebSearch != nil {
		descriptors = append(descriptors, orchestrator.Descriptor{
			Name:        "current_search",
			Description: "answer questions about current events or the current state of the world",
			Invoke:      d.WebSearch.Search,
		})
	}

	for _, desc := range descriptors {
		if err := reg.Register(desc); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
