// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badgerstore persists user records, chat documents, contact
// profiles, and plan state in an embedded Badger database.
//
// Consistency note: chat documents are read-modify-written with no
// optimistic concurrency control. Two racing messages for the same user are
// last-write-wins; acceptable for a single-writer chat client, but a known
// risk if a second transport is ever added.
package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// ErrNotFound is returned when a key has no record.
var ErrNotFound = errors.New("record not found")

// UserRecord is one registered user, including the Google OAuth material
// the credentials manager maintains.
type UserRecord struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	AuthCode     string `json:"auth_code,omitempty"`
}

// Store is the embedded persistence layer.
//
// Thread Safety: safe for concurrent use; Badger transactions provide
// per-operation isolation.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for production
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(id string) []byte     { return []byte("user/" + id) }
func chatKey(id string) []byte     { return []byte("chat/" + id) }
func profilesKey(id string) []byte { return []byte("profiles/" + id) }

// GetUser loads a user record.
func (s *Store) GetUser(userID string) (UserRecord, error) {
	var rec UserRecord
	err := s.getJSON(userKey(userID), &rec)
	return rec, err
}

// PutUser stores a user record.
func (s *Store) PutUser(rec UserRecord) error {
	if rec.UserID == "" {
		return fmt.Errorf("put user: empty user id")
	}
	return s.putJSON(userKey(rec.UserID), rec)
}

// UpdateUserTokens persists refreshed OAuth tokens for a user.
func (s *Store) UpdateUserTokens(userID, accessToken, refreshToken string) error {
	rec, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	rec.AccessToken = accessToken
	if refreshToken != "" {
		rec.RefreshToken = refreshToken
	}
	return s.PutUser(rec)
}

// GetChat loads a user's chat document. A missing document comes back as an
// empty, ready chat rather than an error: every user starts with no chat.
func (s *Store) GetChat(userID string) (datatypes.ChatState, error) {
	var chat datatypes.ChatState
	err := s.getJSON(chatKey(userID), &chat)
	if errors.Is(err, ErrNotFound) {
		return datatypes.ChatState{Status: "ready"}, nil
	}
	return chat, err
}

// PutChat stores a user's chat document.
func (s *Store) PutChat(userID string, chat datatypes.ChatState) error {
	return s.putJSON(chatKey(userID), chat)
}

// GetProfiles loads a user's synced contact profiles.
func (s *Store) GetProfiles(userID string) ([]datatypes.Profile, error) {
	var profiles []datatypes.Profile
	err := s.getJSON(profilesKey(userID), &profiles)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return profiles, err
}

// PutProfiles stores a user's contact profiles.
func (s *Store) PutProfiles(userID string, profiles []datatypes.Profile) error {
	return s.putJSON(profilesKey(userID), profiles)
}

// LoadPlanState returns the latest message of the user's chat when it is a
// resumable envelope, or nil when there is nothing to resume.
func (s *Store) LoadPlanState(userID string) (datatypes.Body, error) {
	chat, err := s.GetChat(userID)
	if err != nil {
		return nil, err
	}
	if len(chat.Messages) == 0 {
		return nil, nil
	}
	return chat.Messages[len(chat.Messages)-1], nil
}

func (s *Store) getJSON(key []byte, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func (s *Store) putJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
