// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_UserRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := UserRecord{UserID: "u1", Name: "Ada", Email: "ada@example.com", RefreshToken: "rt"}
	require.NoError(t, store.PutUser(rec))

	got, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_GetUserNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetUser("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_PutUserRequiresID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.PutUser(UserRecord{Name: "noid"}))
}

func TestStore_UpdateUserTokens(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutUser(UserRecord{UserID: "u1", RefreshToken: "old-rt"}))

	require.NoError(t, store.UpdateUserTokens("u1", "new-at", ""))
	got, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "new-at", got.AccessToken)
	// An empty refresh token means "keep the one we have".
	assert.Equal(t, "old-rt", got.RefreshToken)
}

func TestStore_ChatDefaultsToEmptyReady(t *testing.T) {
	store := newTestStore(t)
	chat, err := store.GetChat("fresh-user")
	require.NoError(t, err)
	assert.Equal(t, "ready", chat.Status)
	assert.Empty(t, chat.Messages)
}

func TestStore_ChatRoundTrip(t *testing.T) {
	store := newTestStore(t)
	chat := datatypes.ChatState{
		Status: "loading",
		Messages: []datatypes.Body{
			{"id": "m1", "text": "schedule lunch", "status": "task_creation"},
		},
	}
	require.NoError(t, store.PutChat("u1", chat))

	got, err := store.GetChat("u1")
	require.NoError(t, err)
	assert.Equal(t, "loading", got.Status)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "schedule lunch", got.Messages[0]["text"])
}

func TestStore_LoadPlanState(t *testing.T) {
	store := newTestStore(t)

	t.Run("no chat yet", func(t *testing.T) {
		state, err := store.LoadPlanState("u1")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("latest message wins", func(t *testing.T) {
		require.NoError(t, store.PutChat("u1", datatypes.ChatState{
			Status: "ready",
			Messages: []datatypes.Body{
				{"id": "m1"},
				{"id": "m2", "status": "confirmation", "all_tasks": []any{"a", "b"}},
			},
		}))
		state, err := store.LoadPlanState("u1")
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "m2", state["id"])
	})
}

func TestStore_ProfilesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	profiles, err := store.GetProfiles("u1")
	require.NoError(t, err)
	assert.Nil(t, profiles)

	want := []datatypes.Profile{{ID: "p1", Name: "John", Email: "john@x.io", Username: "John"}}
	require.NoError(t, store.PutProfiles("u1", want))
	got, err := store.GetProfiles("u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
