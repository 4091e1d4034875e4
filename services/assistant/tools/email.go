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
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
)

// inboxSummaryLimit caps how many messages feed the inbox briefing.
const inboxSummaryLimit = 5

const summarizeEmailsTemplate = `You are a delightful assistant. Summarize the email data below in a briefing.
Do not ask follow up questions. If no emails,
say you don't have emails: %s`

// Email implements the email.* task family against the Gmail API.
//
// Thread Safety: safe for concurrent use.
type Email struct {
	tokens     TokenProvider
	summarizer orchestrator.Inferencer
	logger     *slog.Logger

	newService func(ctx context.Context, userID string) (*gmail.Service, error)
}

// NewEmail wires the email tool family.
func NewEmail(tokens TokenProvider, summarizer orchestrator.Inferencer, logger *slog.Logger) (*Email, error) {
	if tokens == nil {
		return nil, fmt.Errorf("tools: nil token provider")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("tools: nil summarizer model")
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Email{tokens: tokens, summarizer: summarizer, logger: logger}
	e.newService = e.dialService
	return e, nil
}

func (e *Email) dialService(ctx context.Context, userID string) (*gmail.Service, error) {
	ts, err := e.tokens.TokenSource(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tools: gmail credentials for %s: %w", userID, err)
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("tools: dial gmail: %w", err)
	}
	return svc, nil
}

// Send sends the drafted email. Confirmation mode previews the draft
// unsent.
func (e *Email) Send(ctx context.Context, input datatypes.Body, mode orchestrator.Mode) (datatypes.Body, error) {
	preview := input.Clone()
	delete(preview, "user_id")
	if mode == orchestrator.ModeConfirmation {
		return preview, nil
	}

	svc, err := e.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	sender := input.GetString("sender")
	raw := EncodeMessage(
		sender,
		input.GetString("receiver"),
		input.GetString("subject"),
		input.GetString("text"),
	)
	sent, err := svc.Users.Messages.Send(sender, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: send email: %w", err)
	}
	e.logger.Info("email sent", slog.String("message_id", sent.Id))

	preview["message_id"] = sent.Id
	return preview, nil
}

// RetrieveAndSummarize briefs the user on their most recent messages.
func (e *Email) RetrieveAndSummarize(ctx context.Context, input datatypes.Body, _ orchestrator.Mode) (datatypes.Body, error) {
	account := input.GetString("calendar_id")
	svc, err := e.newService(ctx, input.GetString("user_id"))
	if err != nil {
		return nil, err
	}

	list, err := svc.Users.Messages.List(account).MaxResults(inboxSummaryLimit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tools: list messages: %w", err)
	}

	emails := make([]datatypes.Body, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := svc.Users.Messages.Get(account, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("tools: get message %s: %w", m.Id, err)
		}
		emails = append(emails, DecodeMessage(msg))
	}

	briefing, err := e.summarizer.Infer(ctx, fmt.Sprintf(summarizeEmailsTemplate, renderBody(datatypes.Body{"emails": emails})))
	if err != nil {
		return nil, fmt.Errorf("tools: summarize emails: %w", err)
	}
	return datatypes.Body{"_text": briefing}, nil
}

// EncodeMessage builds the RFC 2822 message and encodes it the way the
// Gmail API expects raw payloads (URL-safe base64).
func EncodeMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// DecodeMessage flattens an API message into subject, sender, receiver,
// snippet, and decoded body text.
func DecodeMessage(msg *gmail.Message) datatypes.Body {
	out := datatypes.Body{
		"subject":  "",
		"sender":   "",
		"receiver": "",
		"snippet":  msg.Snippet,
		"data":     "",
	}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			out["subject"] = h.Value
		case "from":
			out["sender"] = h.Value
		case "to":
			out["receiver"] = h.Value
		}
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		// The API serves unpadded URL-safe base64; tolerate padded too.
		data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(msg.Payload.Body.Data, "="))
		if err == nil {
			out["data"] = string(data)
		}
	}
	return out
}
