/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agileflow/engine/internal/adapters/openai"
	"github.com/agileflow/engine/internal/config"
	httpx "github.com/agileflow/engine/internal/http"
	"github.com/agileflow/engine/internal/jobs"
	"github.com/agileflow/engine/internal/logger"
	"github.com/agileflow/engine/internal/repo"
	"github.com/agileflow/engine/internal/services"
	"github.com/agileflow/engine/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	st := store.New(cfg, log)

	// Persistence is optional: without DB_DSN the engine runs purely in
	// memory, seeded with the demo workspace.
	var repository *repo.Repository
	var db *repo.DB
	if cfg.DBDSN != "" {
		var err error
		db, err = repo.Open(context.Background(), cfg, log)
		if err != nil {
			log.Error().Err(err).Msg("db unavailable; continuing without persistence")
		} else {
			repository = repo.NewRepository(db, log)
			if err := repository.EnsureSchema(context.Background()); err != nil {
				log.Error().Err(err).Msg("schema init failed; continuing without persistence")
				repository = nil
			}
		}
	}

	restored := false
	if repository != nil {
		snap, err := repository.LoadSnapshot(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("snapshot load failed")
		} else if snap != nil {
			st.Restore(*snap)
			restored = true
			log.Info().Time("taken_at", snap.TakenAt).Msg("state restored from snapshot")
		}
	}
	if !restored && cfg.SeedDemo {
		st.Seed()
		log.Info().Msg("seeded demo workspace")
	}

	llm := openai.NewClient(cfg, log)
	svc := services.New(cfg, log, st, llm)

	cr := jobs.NewCron(cfg, log, svc, st, repository)
	cr.Start()

	router := httpx.NewRouter(cfg, log, st, svc)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	cr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if repository != nil {
		if err := repository.SaveSnapshot(ctx, st.Snapshot()); err != nil {
			log.Error().Err(err).Msg("final snapshot failed")
		}
		db.Close()
	}
	log.Info().Msg("bye")
}
