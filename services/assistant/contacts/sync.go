// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package contacts builds a user's contact book from two sources: their
// Google contacts and the people they actually met with recently. The
// result feeds @-mention completion and the mentioned_users context.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/badgerstore"
)

// attendeeLookback is how far back the calendar scan reaches for past
// meeting attendees.
const attendeeLookback = 90 * 24 * time.Hour

const (
	contactPageSize = 100
	eventPageSize   = 50
)

// TokenProvider matches tools.TokenProvider; redeclared locally so the
// package depends only on what it uses.
type TokenProvider interface {
	TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error)
}

// ProfileStore persists the synced contact book.
type ProfileStore interface {
	PutProfiles(userID string, profiles []datatypes.Profile) error
}

// UserStore resolves the user's own address, which doubles as their
// calendar id.
type UserStore interface {
	GetUser(userID string) (badgerstore.UserRecord, error)
}

// Syncer merges calendar attendees and saved contacts into deduplicated
// profiles.
//
// Thread Safety: safe for concurrent use.
type Syncer struct {
	tokens   TokenProvider
	users    UserStore
	profiles ProfileStore
	logger   *slog.Logger
	now      func() time.Time

	newCalendar func(ctx context.Context, userID string) (*calendar.Service, error)
	newPeople   func(ctx context.Context, userID string) (*people.Service, error)
}

// NewSyncer wires a contact syncer.
func NewSyncer(tokens TokenProvider, users UserStore, profiles ProfileStore, logger *slog.Logger) (*Syncer, error) {
	if tokens == nil || users == nil || profiles == nil {
		return nil, fmt.Errorf("contacts: missing dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{tokens: tokens, users: users, profiles: profiles, logger: logger, now: time.Now}
	s.newCalendar = func(ctx context.Context, userID string) (*calendar.Service, error) {
		ts, err := tokens.TokenSource(ctx, userID)
		if err != nil {
			return nil, err
		}
		return calendar.NewService(ctx, option.WithTokenSource(ts))
	}
	s.newPeople = func(ctx context.Context, userID string) (*people.Service, error) {
		ts, err := tokens.TokenSource(ctx, userID)
		if err != nil {
			return nil, err
		}
		return people.NewService(ctx, option.WithTokenSource(ts))
	}
	return s, nil
}

// Sync rebuilds and persists the contact book for userID.
func (s *Syncer) Sync(ctx context.Context, userID string) error {
	rec, err := s.users.GetUser(userID)
	if err != nil {
		return fmt.Errorf("contacts: resolve user %s: %w", userID, err)
	}
	email := rec.Email

	calSvc, err := s.newCalendar(ctx, userID)
	if err != nil {
		return fmt.Errorf("contacts: dial calendar: %w", err)
	}
	peopleSvc, err := s.newPeople(ctx, userID)
	if err != nil {
		return fmt.Errorf("contacts: dial people: %w", err)
	}

	attendees, err := s.recentAttendees(ctx, calSvc, email)
	if err != nil {
		return err
	}
	connections, err := s.savedContacts(ctx, peopleSvc)
	if err != nil {
		return err
	}

	profiles := MergeProfiles(attendees, connections)
	if err := s.profiles.PutProfiles(userID, profiles); err != nil {
		return fmt.Errorf("contacts: persist profiles: %w", err)
	}
	s.logger.Info("contact book synced",
		slog.String("user_id", userID),
		slog.Int("profiles", len(profiles)),
	)
	return nil
}

// recentAttendees scans the lookback window for people who responded to a
// meeting invitation. Organizers and non-responders are skipped.
func (s *Syncer) recentAttendees(ctx context.Context, svc *calendar.Service, calendarID string) ([]datatypes.Profile, error) {
	now := s.now().UTC()
	timeMin := now.Add(-attendeeLookback).Format(time.RFC3339)
	timeMax := now.Format(time.RFC3339)

	var out []datatypes.Profile
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
			return nil, fmt.Errorf("contacts: list events: %w", err)
		}
		for _, event := range page.Items {
			for _, a := range event.Attendees {
				if a.Organizer || a.ResponseStatus == "needsAction" || a.ResponseStatus == "" {
					continue
				}
				if a.Email == "" {
					continue
				}
				name := a.DisplayName
				if name == "" {
					name = localPart(a.Email)
				}
				out = append(out, datatypes.Profile{Name: name, Email: a.Email})
			}
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func (s *Syncer) savedContacts(ctx context.Context, svc *people.Service) ([]datatypes.Profile, error) {
	resp, err := svc.People.Connections.List("people/me").
		PageSize(contactPageSize).
		PersonFields("names,emailAddresses").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("contacts: list connections: %w", err)
	}

	var out []datatypes.Profile
	for _, person := range resp.Connections {
		if len(person.Names) == 0 || len(person.EmailAddresses) == 0 {
			continue
		}
		email := person.EmailAddresses[0].Value
		if email == "" {
			continue
		}
		name := person.Names[0].DisplayName
		if name == "" {
			name = localPart(email)
		}
		out = append(out, datatypes.Profile{Name: name, Email: email})
	}
	return out, nil
}

// MergeProfiles combines the two sources, dropping duplicate addresses
// (first occurrence wins, attendees before saved contacts) and assigning
// each profile an id and a username derived from its name.
func MergeProfiles(attendees, connections []datatypes.Profile) []datatypes.Profile {
	seen := make(map[string]bool)
	merged := make([]datatypes.Profile, 0, len(attendees)+len(connections))
	for _, p := range append(append([]datatypes.Profile{}, attendees...), connections...) {
		if p.Email == "" || seen[p.Email] {
			continue
		}
		seen[p.Email] = true
		p.ID = uuid.NewString()
		p.Username = strings.ReplaceAll(p.Name, " ", "")
		merged = append(merged, p)
	}
	return merged
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
