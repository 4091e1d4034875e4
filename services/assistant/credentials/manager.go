// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package credentials manages per-user Google OAuth material: auth-URL
// generation, auth-code exchange, token persistence, and refresh.
package credentials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/awnumar/memguard"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/badgerstore"
)

// Scopes is the full scope set the assistant needs: calendar CRUD, email
// compose/send/read, profile, and contacts.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.compose",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/contacts.readonly",
}

// UserStore is the slice of storage the manager needs.
type UserStore interface {
	GetUser(userID string) (badgerstore.UserRecord, error)
	UpdateUserTokens(userID, accessToken, refreshToken string) error
}

// Manager builds per-user token sources.
//
// Description:
//
//	The OAuth client secret is held in a memguard enclave and only
//	materialized for the moment an oauth2.Config is needed, so a heap
//	dump between requests does not expose it.
//
// Thread Safety: safe for concurrent use.
type Manager struct {
	clientID    string
	secret      *memguard.Enclave
	redirectURL string
	users       UserStore
	logger      *slog.Logger
}

// NewManager seals the client secret and wires the store. The clientSecret
// slice is wiped by memguard during sealing.
func NewManager(clientID string, clientSecret []byte, redirectURL string, users UserStore, logger *slog.Logger) (*Manager, error) {
	if clientID == "" || len(clientSecret) == 0 {
		return nil, fmt.Errorf("credentials: missing google client id or secret")
	}
	if users == nil {
		return nil, fmt.Errorf("credentials: nil user store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		clientID:    clientID,
		secret:      memguard.NewEnclave(clientSecret),
		redirectURL: redirectURL,
		users:       users,
		logger:      logger,
	}, nil
}

// config materializes an oauth2.Config for the duration of one call.
func (m *Manager) config() (*oauth2.Config, error) {
	buf, err := m.secret.Open()
	if err != nil {
		return nil, fmt.Errorf("credentials: open secret enclave: %w", err)
	}
	defer buf.Destroy()
	return &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: string(buf.Bytes()),
		RedirectURL:  m.redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// AuthURL returns the consent URL for a user. The user id rides in the
// state parameter so the callback can attribute the code.
func (m *Manager) AuthURL(userID string) (string, error) {
	cfg, err := m.config()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(userID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// Exchange trades an auth code for tokens and persists them on the user
// record.
func (m *Manager) Exchange(ctx context.Context, userID, code string) error {
	cfg, err := m.config()
	if err != nil {
		return err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("credentials: exchange auth code for %s: %w", userID, err)
	}
	if err := m.users.UpdateUserTokens(userID, token.AccessToken, token.RefreshToken); err != nil {
		return fmt.Errorf("credentials: persist tokens for %s: %w", userID, err)
	}
	m.logger.Info("exchanged auth code for tokens", slog.String("user_id", userID))
	return nil
}

// TokenSource returns a self-refreshing token source for a user.
//
// Description:
//
//	The stored access token is used as the seed; oauth2 refreshes it
//	transparently with the refresh token when expired. Refreshed access
//	tokens are written back on the next persistAware Token() call via
//	the wrapping source below, keeping storage warm for cold starts.
func (m *Manager) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	rec, err := m.users.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("credentials: load user %s: %w", userID, err)
	}
	if rec.RefreshToken == "" && rec.AuthCode != "" {
		// First use after consent: finish the exchange lazily.
		if err := m.Exchange(ctx, userID, rec.AuthCode); err != nil {
			return nil, err
		}
		if rec, err = m.users.GetUser(userID); err != nil {
			return nil, err
		}
	}
	if rec.RefreshToken == "" {
		return nil, fmt.Errorf("credentials: user %s has no refresh token; re-consent required", userID)
	}

	cfg, err := m.config()
	if err != nil {
		return nil, err
	}
	seed := &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	}
	return &persistingSource{
		inner:  cfg.TokenSource(ctx, seed),
		users:  m.users,
		userID: userID,
		last:   rec.AccessToken,
		logger: m.logger,
	}, nil
}

// persistingSource writes refreshed access tokens back to storage.
type persistingSource struct {
	inner  oauth2.TokenSource
	users  UserStore
	userID string
	last   string
	logger *slog.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.inner.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := p.users.UpdateUserTokens(p.userID, token.AccessToken, token.RefreshToken); err != nil {
			// Persistence failure must not break the live call.
			p.logger.Warn("failed to persist refreshed token",
				slog.String("user_id", p.userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return token, nil
}
