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
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianAssist/services/assistant"
	"github.com/AleutianAI/AleutianAssist/services/assistant/config"
	"github.com/AleutianAI/AleutianAssist/services/assistant/contacts"
	"github.com/AleutianAI/AleutianAssist/services/assistant/credentials"
	"github.com/AleutianAI/AleutianAssist/services/assistant/llm"
	"github.com/AleutianAI/AleutianAssist/services/assistant/orchestrator"
	"github.com/AleutianAI/AleutianAssist/services/assistant/search"
	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/archive"
	"github.com/AleutianAI/AleutianAssist/services/assistant/storage/badgerstore"
	"github.com/AleutianAI/AleutianAssist/services/assistant/telemetry"
	"github.com/AleutianAI/AleutianAssist/services/assistant/tools"
	"github.com/AleutianAI/AleutianAssist/services/assistant/usercontext"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

func runServeCommand(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if debugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "aleutian-assistant", debugMode)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdownTracing()

	store, err := badgerstore.Open(cfg.Storage.DataDir, slog.Default())
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", cfg.Storage.DataDir, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", slog.String("error", err.Error()))
		}
	}()

	secret, err := config.GoogleClientSecret()
	if err != nil {
		log.Fatalf("Google OAuth is required for serve: %v", err)
	}
	creds, err := credentials.NewManager(cfg.Google.ClientID, secret, cfg.Google.RedirectURL, store, slog.Default())
	if err != nil {
		log.Fatalf("Failed to build credentials manager: %v", err)
	}

	engine, err := buildEngine(cfg, creds, store)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	svc, err := assistant.NewService(engine, store, slog.Default())
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}
	handlers := assistant.NewHandlers(svc, creds)

	syncer, err := contacts.NewSyncer(creds, store, store, slog.Default())
	if err != nil {
		log.Fatalf("Failed to build contact syncer: %v", err)
	}
	handlers.EnableContactSync(syncer, store)

	if cfg.Storage.ArchiveBucket != "" {
		gcs, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatalf("Failed to build GCS client: %v", err)
		}
		defer gcs.Close()
		archiver, err := archive.NewArchiver(gcs, cfg.Storage.ArchiveBucket, slog.Default())
		if err != nil {
			log.Fatalf("Failed to build archiver: %v", err)
		}
		handlers.EnableArchiving(archiver)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-assistant"))
	if debugMode {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	assistant.RegisterRoutes(v1, handlers)

	// Prometheus endpoint on its own listener, away from the public API.
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	if watch, _ := cmd.Flags().GetBool("watch-config"); watch && configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				slog.Info("Config reloaded",
					slog.String("path", configPath),
					slog.String("time_zone", next.Assistant.TimeZone),
				)
			})
			if err != nil {
				slog.Warn("Config watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		slog.Info("Starting assistant server",
			slog.String("address", cfg.Server.ListenAddr),
			slog.String("metrics_address", cfg.Server.MetricsAddr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		slog.Info("Shutting down assistant server")
		grace := time.Duration(cfg.Server.ShutdownGraceSeconds) * time.Second
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), grace)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics shutdown failed", slog.String("error", err.Error()))
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildEngine assembles the planner, tool registry, and user context
// provider into a ready orchestration engine.
func buildEngine(cfg *config.Config, creds *credentials.Manager, store *badgerstore.Store) (*orchestrator.Engine, error) {
	models, err := llm.NewModels(
		llm.ClientConfig{
			Model:             cfg.LLM.SmartModel,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
			MaxTokens:         cfg.LLM.MaxTokens,
		},
		llm.ClientConfig{
			Model:             cfg.LLM.FastModel,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
			MaxTokens:         cfg.LLM.MaxTokens,
		},
		slog.Default(),
	)
	if err != nil {
		return nil, err
	}

	embedClient, err := openai.New(
		openai.WithModel(cfg.LLM.FastModel),
		openai.WithEmbeddingModel(cfg.LLM.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(embedClient)
	if err != nil {
		return nil, err
	}
	ranker, err := search.NewRanker(embedder)
	if err != nil {
		return nil, err
	}

	dateRanges, err := tools.NewDateRangeDefiner(models.Fast)
	if err != nil {
		return nil, err
	}
	calendarTool, err := tools.NewCalendar(creds, ranker, dateRanges, models.Fast, slog.Default())
	if err != nil {
		return nil, err
	}
	emailTool, err := tools.NewEmail(creds, models.Fast, slog.Default())
	if err != nil {
		return nil, err
	}
	companion, err := tools.NewCompanion(models.Fast)
	if err != nil {
		return nil, err
	}
	eventDetails, err := tools.NewEventDetailsDefiner(models.Fast)
	if err != nil {
		return nil, err
	}
	emailDetails, err := tools.NewEmailDetailsDefiner(models.Fast)
	if err != nil {
		return nil, err
	}

	deps := tools.Deps{
		Calendar:     calendarTool,
		Email:        emailTool,
		Companion:    companion,
		EventDetails: eventDetails,
		EmailDetails: emailDetails,
	}
	if cfg.Assistant.WebSearchEnabled {
		webSearch, err := tools.NewWebSearch("")
		if err != nil {
			return nil, err
		}
		deps.WebSearch = webSearch
	}

	registry, err := tools.BuildRegistry(deps)
	if err != nil {
		return nil, err
	}

	planner, err := orchestrator.NewPlanner(models.Smart, slog.Default())
	if err != nil {
		return nil, err
	}

	contexts, err := usercontext.NewProvider(store, cfg.Assistant.TimeZone, slog.Default())
	if err != nil {
		return nil, err
	}

	return orchestrator.NewEngine(registry, planner, contexts, slog.Default())
}
