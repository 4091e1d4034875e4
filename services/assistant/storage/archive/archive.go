// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive copies finished chat transcripts to object storage so
// the hot store can stay small.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

const objectTimeLayout = "20060102T150405Z"

// Archiver writes transcripts to a GCS bucket as JSON objects keyed by
// user and archive time.
//
// Thread Safety: safe for concurrent use.
type Archiver struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
	now    func() time.Time
}

// NewArchiver wraps a storage client for the given bucket.
func NewArchiver(client *storage.Client, bucket string, logger *slog.Logger) (*Archiver, error) {
	if client == nil {
		return nil, fmt.Errorf("archive: nil storage client")
	}
	if bucket == "" {
		return nil, fmt.Errorf("archive: empty bucket name")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{client: client, bucket: bucket, logger: logger, now: time.Now}, nil
}

// Archive stores the chat state and returns the object name it wrote.
func (a *Archiver) Archive(ctx context.Context, userID string, chat datatypes.ChatState) (string, error) {
	data, err := json.Marshal(chat)
	if err != nil {
		return "", fmt.Errorf("archive: encode transcript: %w", err)
	}

	name := ObjectName(userID, a.now())
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("archive: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: close %s: %w", name, err)
	}

	a.logger.Info("transcript archived",
		slog.String("user_id", userID),
		slog.String("object", name),
		slog.Int("messages", len(chat.Messages)),
	)
	return name, nil
}

// ObjectName is the bucket key for one archived transcript.
func ObjectName(userID string, at time.Time) string {
	return fmt.Sprintf("transcripts/%s/%s.json", userID, at.UTC().Format(objectTimeLayout))
}
