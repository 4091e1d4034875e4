// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command assistant runs the Aleutian Assist task execution service.
//
// Aleutian Assist turns free-form chat requests into tool plans and runs
// them against the user's calendar, email, and contacts, pausing for
// confirmation before anything with side effects.
//
// Usage:
//
//	go run ./cmd/assistant serve
//	go run ./cmd/assistant serve --config config.yaml
//	go run ./cmd/assistant chat --user local-user
//
// Required environment:
//
//	OPENAI_API_KEY          inference and embeddings
//	GOOGLE_CLIENT_SECRET    OAuth client secret (serve only)
//	SERPAPI_API_KEY         web search, when enabled in config
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// configPath and debugMode hold the global flag values.
var (
	configPath string
	debugMode  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Aleutian Assist: plan-and-execute task assistant",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(debugMode)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (defaults embedded)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging and tracing")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant API server",
		Run:   runServeCommand,
	}
	serveCmd.Flags().Bool("watch-config", false, "Reload config on file change")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Run:   runChatCommand,
	}
	chatCmd.Flags().String("user", "local-user", "User id for the session")

	rootCmd.AddCommand(serveCmd, chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the process-wide structured logger.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
