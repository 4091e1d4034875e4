// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package usercontext builds the per-user ambient context (identity, local
// time, mentioned contacts, calendar id) injected into every pass.
package usercontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/badgerstore"
)

// UserStore is the slice of storage the provider needs.
type UserStore interface {
	GetUser(userID string) (badgerstore.UserRecord, error)
}

// Provider assembles UserContext values.
//
// Thread Safety: safe for concurrent use.
type Provider struct {
	users    UserStore
	timeZone string
	now      func() time.Time
	logger   *slog.Logger
}

// NewProvider builds a provider. timeZone is the IANA zone used for the
// "current date and time" the detail definers reason against; user records
// carry no zone of their own yet.
func NewProvider(users UserStore, timeZone string, logger *slog.Logger) (*Provider, error) {
	if users == nil {
		return nil, fmt.Errorf("usercontext: nil user store")
	}
	if timeZone == "" {
		timeZone = "America/Los_Angeles"
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		return nil, fmt.Errorf("usercontext: bad time zone %q: %w", timeZone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{users: users, timeZone: timeZone, now: time.Now, logger: logger}, nil
}

// GetUserContext builds the context for one pass. A missing user record is
// not fatal: the assistant can still chat, it just cannot touch a calendar.
func (p *Provider) GetUserContext(_ context.Context, userID string, mentions []datatypes.Mention) (datatypes.UserContext, error) {
	rec, err := p.users.GetUser(userID)
	if err != nil && !errors.Is(err, badgerstore.ErrNotFound) {
		return datatypes.UserContext{}, fmt.Errorf("usercontext: load user %s: %w", userID, err)
	}
	if errors.Is(err, badgerstore.ErrNotFound) {
		p.logger.Warn("no user record for context", slog.String("user_id", userID))
	}

	loc, _ := time.LoadLocation(p.timeZone)
	return datatypes.UserContext{
		Name:               rec.Name,
		CurrentDateAndTime: p.now().In(loc).Format("2006-01-02 15:04:05"),
		TimeZone:           p.timeZone,
		MentionedUsers:     formatMentions(mentions),
		CalendarID:         rec.Email,
	}, nil
}

// formatMentions renders @-mentions as a deterministic "@username ->
// name <email>" list for the prompts.
func formatMentions(mentions []datatypes.Mention) string {
	if len(mentions) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(mentions))
	for _, m := range mentions {
		parts = append(parts, fmt.Sprintf("@%s -> %s <%s>", m.Username, m.Name, m.Email))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
