// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAssist/services/assistant/config"
	"github.com/AleutianAI/AleutianAssist/services/assistant/credentials"
	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/badgerstore"
)

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// runChatCommand runs the assistant as a terminal REPL against the local
// Badger store, without the HTTP server. Confirmation-mode tools still
// halt; the confirmation is answered at the terminal instead of in a
// client app.
func runChatCommand(cmd *cobra.Command, _ []string) {
	userID, _ := cmd.Flags().GetString("user")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := badgerstore.Open(cfg.Storage.DataDir, slog.Default())
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", cfg.Storage.DataDir, err)
	}
	defer store.Close()

	secret, err := config.GoogleClientSecret()
	if err != nil {
		log.Fatalf("Google OAuth is required for tool execution: %v", err)
	}
	creds, err := credentials.NewManager(cfg.Google.ClientID, secret, cfg.Google.RedirectURL, store, slog.Default())
	if err != nil {
		log.Fatalf("Failed to build credentials manager: %v", err)
	}

	engine, err := buildEngine(cfg, creds, store)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Println(promptStyle.Render("Aleutian Assist") + detailStyle.Render("  (user: "+userID+", exit with ctrl-d)"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		printEnvelope(runLine(ctx, engine, userID, line, askApproval))
	}
}

// runLine sends one typed line through the engine as a task_creation pass,
// not a local one: confirmation-mode tools must halt so the user is asked
// before anything runs. Halted plans are resumed with the user's answer
// until the pass reaches a terminal envelope.
func runLine(ctx context.Context, engine passRunner, userID, line string, ask func(datatypes.ApiResponse) bool) datatypes.ApiResponse {
	msg := datatypes.InboundMessage{
		ID:     uuid.NewString(),
		Text:   line,
		UserID: userID,
		Sender: userID,
		Status: datatypes.PassTaskCreation,
	}
	resp := engine.PlanAndExecute(ctx, msg)

	for resp.Status == datatypes.ResponseConfirmation {
		status := datatypes.PassExecution
		if !ask(resp) {
			status = datatypes.PassDeclined
		}
		resume := datatypes.InboundMessage{
			ID:               uuid.NewString(),
			UserID:           userID,
			Status:           status,
			Body:             resp.Body,
			BodyType:         resp.BodyType,
			AllTasks:         resp.AllTasks,
			LastExecutedTask: resp.LastExecutedTask,
		}
		resp = engine.PlanAndExecute(ctx, resume)
	}
	return resp
}

// askApproval shows the halted tool's input and asks the user to approve
// or decline it.
func askApproval(resp datatypes.ApiResponse) bool {
	fmt.Println(replyStyle.Render(resp.Text))
	if preview := renderPreview(resp.Body); preview != "" {
		fmt.Println(detailStyle.Render(preview))
	}

	approved := true
	prompt := huh.NewConfirm().
		Title("Run " + resp.BodyType + "?").
		Affirmative("Run it").
		Negative("Cancel").
		Value(&approved)
	if err := prompt.Run(); err != nil {
		approved = false
	}
	return approved
}

// passRunner is the slice of the engine the REPL needs.
type passRunner interface {
	PlanAndExecute(ctx context.Context, msg datatypes.InboundMessage) datatypes.ApiResponse
}

func printEnvelope(resp datatypes.ApiResponse) {
	switch resp.Status {
	case datatypes.ResponseFailure:
		fmt.Println(failureStyle.Render(resp.Text))
		if resp.ErrorMessage != "" {
			fmt.Println(detailStyle.Render(resp.ErrorMessage))
		}
	default:
		if resp.Text != "" {
			fmt.Println(replyStyle.Render(resp.Text))
		} else {
			fmt.Println(replyStyle.Render("Done."))
		}
	}
}

// renderPreview pretty-prints the pending tool input for the user to
// review before confirming.
func renderPreview(body datatypes.Body) string {
	if len(body) == 0 {
		return ""
	}
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
