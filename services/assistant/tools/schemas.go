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

import "github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"

// DefaultTimeZone is assumed when neither the user context nor the bound
// history carries a zone.
const DefaultTimeZone = "America/Los_Angeles"

// userIDField threads the acting user through schema binding so tools can
// open per-user Google services. It always binds from the default input.
func userIDField() orchestrator.FieldSpec {
	return orchestrator.FieldSpec{
		Kind:        orchestrator.KindString,
		Required:    true,
		Description: "ID of the user the pass runs for.",
	}
}

// CalendarCreateSchema binds the fields needed to insert a calendar event.
func CalendarCreateSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"summary":     {Kind: orchestrator.KindString, Required: true, Description: "A short summary of the event."},
		"location":    {Kind: orchestrator.KindString, Required: true, Description: "The location where the event will take place."},
		"description": {Kind: orchestrator.KindString, Required: true, Description: "A detailed description of the event."},
		"start_date":  {Kind: orchestrator.KindString, Required: true, Description: "The date and time when the event starts."},
		"end_date":    {Kind: orchestrator.KindString, Required: true, Description: "The date and time when the event ends."},
		"calendar_id": {Kind: orchestrator.KindString, Required: true, Description: "The ID of the calendar that the event belongs to."},
		"attendees":   {Kind: orchestrator.KindList, Required: true, Description: "Name and email of each invited person."},
		"time_zone":   {Kind: orchestrator.KindString, Default: DefaultTimeZone, Description: "The time zone of the user."},
		"user_id":     userIDField(),
	}
}

// CalendarUpdateSchema is the create schema plus the target event id.
func CalendarUpdateSchema() orchestrator.Schema {
	s := CalendarCreateSchema()
	s["event_id"] = orchestrator.FieldSpec{Kind: orchestrator.KindString, Required: true, Description: "ID of the event to update."}
	return s
}

// CalendarDeleteSchema binds the fields needed to delete an event.
func CalendarDeleteSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"event_id":    {Kind: orchestrator.KindString, Required: true, Description: "ID of the event to delete."},
		"calendar_id": {Kind: orchestrator.KindString, Required: true, Description: "The ID of the calendar that the event belongs to."},
		"time_zone":   {Kind: orchestrator.KindString, Default: DefaultTimeZone, Description: "The time zone of the user."},
		"user_id":     userIDField(),
	}
}

// CalendarFindSchema binds the lookup request for the closest-matching event.
func CalendarFindSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"user_task":   {Kind: orchestrator.KindString, Required: true, Description: "The user's task request."},
		"calendar_id": {Kind: orchestrator.KindString, Required: true, Description: "The ID of the calendar to search."},
		"user_id":     userIDField(),
	}
}

// CalendarRetrieveSchema binds the schedule-briefing request.
func CalendarRetrieveSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"user_task":    {Kind: orchestrator.KindString, Required: true, Description: "The user's task request."},
		"calendar_id":  {Kind: orchestrator.KindString, Required: true, Description: "The ID of the calendar to read."},
		"user_context": {Kind: orchestrator.KindString, Required: true, Description: "The user's ambient context."},
		"user_id":      userIDField(),
	}
}

// EmailSendSchema binds a drafted email ready to send.
func EmailSendSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"subject":  {Kind: orchestrator.KindString, Required: true, Description: "The subject of the email."},
		"sender":   {Kind: orchestrator.KindString, Required: true, Description: "The email address of the sender."},
		"receiver": {Kind: orchestrator.KindString, Required: true, Description: "The email address of the receiver."},
		"text":     {Kind: orchestrator.KindString, Required: true, Description: "The text content of the email."},
		"user_id":  userIDField(),
	}
}

// EmailRetrieveSchema binds the inbox summary request.
func EmailRetrieveSchema() orchestrator.Schema {
	return orchestrator.Schema{
		"user_task":   {Kind: orchestrator.KindString, Required: true, Description: "The user's task request."},
		"calendar_id": {Kind: orchestrator.KindString, Required: true, Description: "The user's primary address, used as the Gmail account id."},
		"user_id":     userIDField(),
	}
}
