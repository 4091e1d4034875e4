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
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
	"github.com/AleutianAI/AleutianAssist/services/assistant/search"
)

// lookbackWindow and lookaheadWindow bound the event scan used by fuzzy
// event lookup. Matching against a user's whole history is slow and rarely
// what "my dentist thing" means.
const (
	lookbackWindow  = 24 * time.Hour
	lookaheadWindow = 31 * 24 * time.Hour

	eventPageSize = 50
)

const summarizeTemplate = `You are a delightful assistant, be fun, easygoing, and concise.
Below is a person's schedule. Respond as if talking directly
to the person to give a briefing about his or her schedule.

If no events, say there are no events.
Events:
%s`

// Calendar implements the calendar.* task family against the Google
// Calendar API. One instance serves all users; the acting user rides in
// each bound input.
//
// Thread Safety: safe for concurrent use.
type Calendar struct {
	tokens     TokenProvider
	ranker     *search.Ranker
	dateRanges *DateRangeDefiner
	summarizer orchestrator.Inferencer
	logger     *slog.Logger
	now        func() time.Time

	// newService is swapped in tests to avoid the network.
	newService func(ctx context.Context, userID string) (*calendar.Service, error)
}

// NewCalendar wires the calendar tool family.
func NewCalendar(tokens TokenProvider, ranker *search.Ranker, dateRanges *DateRangeDefiner, summarizer orchestrator.Inferencer, logger *slog.Logger) (*Calendar, error) {
	if tokens == nil {
		return nil, fmt.Errorf("tools: nil token provider")
	}
	if ranker == nil {
		return nil, fmt.Errorf("tools: nil ranker")
	}
	if dateRanges == nil {
		return nil, fmt.Errorf("tools: nil date range definer")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("tools: nil summarizer model")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Calendar{
		tokens:     tokens,
		ranker:     ranker,
		dateRanges: dateRanges,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}
	c.newService = c.dialService
	return c, nil
}

func (c *Calendar) dialService(ctx context.Context, userID string) (*calendar.Service, error) {
	ts, err := c.tokens.TokenSource(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tools: calendar credentials for %s: %w", userID, err)
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("tools: dial calendar: %w", err)
	}
	return svc, nil
}

// CreateEvent inserts a calendar event. In confirmation mode it returns the
// normalized parameters as a preview instead of writing anything.
func (c *Calendar) CreateEvent(ctx context.Context, input datatypes.Body, mode orchestrator.Mode) (datatypes.Body, error) {
	preview := input.Clone()
	delete(preview, "user_id")
	preview["attendees"] = NormalizeAttendees(attendeeList(input), true)

	if mode == orchestrator.ModeConfirmation {
		return preview, nil
	}

	svc, err := c.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.GetString("summary"),
		Location:    input.GetString("location"),
		Description: input.GetString("description"),
		Start: &calendar.EventDateTime{
			DateTime: input.GetString("start_date"),
			TimeZone: input.GetString("time_zone"),
		},
		End: &calendar.EventDateTime{
			DateTime: input.GetString("end_date"),
			TimeZone: input.GetString("time_zone"),
		},
		Attendees: googleAttendees(attendeeList(input)),
		Reminders: &calendar.EventReminders{
			UseDefault:      true,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := svc.Events.Insert(input.GetString("calendar_id"), event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: insert event: %w", err)
	}
	c.logger.Info("calendar event created",
		slog.String("event_id", created.Id),
		slog.String("calendar_id", input.GetString("calendar_id")),
	)
	return eventBody(created), nil
}

// UpdateEvent rewrites an existing event's details. Confirmation mode
// previews the new field values.
func (c *Calendar) UpdateEvent(ctx context.Context, input datatypes.Body, mode orchestrator.Mode) (datatypes.Body, error) {
	preview := input.Clone()
	delete(preview, "user_id")
	preview["attendees"] = NormalizeAttendees(attendeeList(input), false)

	if mode == orchestrator.ModeConfirmation {
		return preview, nil
	}

	calendarID := input.GetString("calendar_id")
	eventID := input.GetString("event_id")
	svc, err := c.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	event, err := svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: load event %s: %w", eventID, err)
	}
	event.Location = input.GetString("location")
	event.Description = input.GetString("description")
	event.Start = &calendar.EventDateTime{
		DateTime: input.GetString("start_date"),
		TimeZone: input.GetString("time_zone"),
	}
	event.End = &calendar.EventDateTime{
		DateTime: input.GetString("end_date"),
		TimeZone: input.GetString("time_zone"),
	}
	event.Attendees = googleAttendees(attendeeList(input))

	updated, err := svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: update event %s: %w", eventID, err)
	}
	c.logger.Info("calendar event updated", slog.String("event_id", eventID))
	return eventBody(updated), nil
}

// DeleteEvent removes an event. Both modes return the event's identifying
// fields; the confirmation preview is what the user approves against.
func (c *Calendar) DeleteEvent(ctx context.Context, input datatypes.Body, mode orchestrator.Mode) (datatypes.Body, error) {
	calendarID := input.GetString("calendar_id")
	eventID := input.GetString("event_id")
	svc, err := c.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	event, err := svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: load event %s: %w", eventID, err)
	}

	out := eventBody(event)
	out["time_zone"] = input.GetString("time_zone")
	out["calendar_id"] = calendarID

	if mode == orchestrator.ModeConfirmation {
		return out, nil
	}

	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("tools: delete event %s: %w", eventID, err)
	}
	c.logger.Info("calendar event deleted", slog.String("event_id", eventID))
	return out, nil
}

// FindEvent fuzzy-matches the user's request against upcoming events and
// returns the best candidate's identifying fields, or an empty body when
// nothing matches.
func (c *Calendar) FindEvent(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	calendarID := input.GetString("calendar_id")
	svc, err := c.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	events, err := c.listEvents(ctx, svc, calendarID,
		now.Add(-lookbackWindow).Format(time.RFC3339),
		now.Add(lookaheadWindow).Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}

	candidates := make([]datatypes.Body, 0, len(events))
	for _, e := range events {
		candidates = append(candidates, eventBody(e))
	}
	matched, err := c.ranker.Rank(ctx, input.GetString("user_task"), candidates, []string{"summary"}, 1)
	if err != nil {
		return nil, fmt.Errorf("tools: rank events: %w", err)
	}
	if len(matched) == 0 {
		return datatypes.Body{}, nil
	}
	return matched[0], nil
}

// RetrieveAndSummarize resolves the requested window, pulls the events in
// it, and briefs the user on them.
func (c *Calendar) RetrieveAndSummarize(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	calendarID := input.GetString("calendar_id")
	svc, err := c.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	window, err := c.dateRanges.Define(ctx, input.GetString("user_task"), input.GetString("user_context"))
	if err != nil {
		return nil, err
	}
	timeMin, timeMax, err := windowToUTC(window)
	if err != nil {
		return nil, err
	}

	events, err := c.listEvents(ctx, svc, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}
	parsed := ParseEvents(events)

	briefing, err := c.summarizer.Infer(ctx, fmt.Sprintf(summarizeTemplate, renderBody(datatypes.Body{"events": parsed})))
	if err != nil {
		return nil, fmt.Errorf("tools: summarize events: %w", err)
	}
	return datatypes.Body{
		"calendar_id": calendarID,
		"_text":       briefing,
	}, nil
}

func (c *Calendar) listEvents(ctx context.Context, svc *calendar.Service, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	var all []*calendar.Event
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).
			MaxResults(eventPageSize).
			TimeMin(timeMin).
			TimeMax(timeMax).
			SingleEvents(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("tools: list events: %w", err)
		}
		all = append(all, page.Items...)
		pageToken = page.NextPageToken
		if pageToken == "" {
			return all, nil
		}
	}
}

// =============================================================================
// Pure helpers
// =============================================================================

// NormalizeAttendees gives attendee maps a consistent shape for previews:
// displayName is mirrored to name, and, when requireEmail is set, entries
// without an email address are dropped.
func NormalizeAttendees(attendees []any, requireEmail bool) []any {
	out := make([]any, 0, len(attendees))
	for _, raw := range attendees {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		formatted := datatypes.Body(item).Clone()
		if dn := formatted.GetString("displayName"); dn != "" {
			formatted["name"] = dn
		}
		if requireEmail && formatted.GetString("email") == "" {
			continue
		}
		out = append(out, map[string]any(formatted))
	}
	return out
}

// ParseEvents reduces API events to the start/end/summary triple the
// summarizer prompt needs.
func ParseEvents(events []*calendar.Event) []datatypes.Body {
	parsed := make([]datatypes.Body, 0, len(events))
	for _, e := range events {
		b := datatypes.Body{"summary": e.Summary}
		if e.Start != nil {
			b["start"] = e.Start.DateTime
		}
		if e.End != nil {
			b["end"] = e.End.DateTime
		}
		parsed = append(parsed, b)
	}
	return parsed
}

// windowToUTC reparses the definer's window into UTC RFC 3339 bounds for
// the events.list call.
func windowToUTC(w DateRange) (string, string, error) {
	minT, err := time.Parse(time.RFC3339, w.MinDate)
	if err != nil {
		return "", "", fmt.Errorf("tools: bad min_date %q: %w", w.MinDate, err)
	}
	maxT, err := time.Parse(time.RFC3339, w.MaxDate)
	if err != nil {
		return "", "", fmt.Errorf("tools: bad max_date %q: %w", w.MaxDate, err)
	}
	return minT.UTC().Format(time.RFC3339), maxT.UTC().Format(time.RFC3339), nil
}

func attendeeList(input datatypes.Body) []any {
	list, _ := input["attendees"].([]any)
	return list
}

func googleAttendees(attendees []any) []*calendar.EventAttendee {
	out := make([]*calendar.EventAttendee, 0, len(attendees))
	for _, raw := range attendees {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		b := datatypes.Body(item)
		if b.GetString("email") == "" {
			continue
		}
		out = append(out, &calendar.EventAttendee{
			Email:       b.GetString("email"),
			DisplayName: b.GetString("displayName"),
		})
	}
	return out
}

func eventBody(e *calendar.Event) datatypes.Body {
	b := datatypes.Body{
		"event_id": e.Id,
		"summary":  e.Summary,
	}
	if e.Start != nil {
		b["start_date"] = e.Start.DateTime
	}
	if e.End != nil {
		b["end_date"] = e.End.DateTime
	}
	if e.HtmlLink != "" {
		b["link"] = e.HtmlLink
	}
	return b
}
