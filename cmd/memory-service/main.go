package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solace-labs/solace-memory/internal/api"
	"github.com/solace-labs/solace-memory/internal/config"
	"github.com/solace-labs/solace-memory/internal/logger"
	"github.com/solace-labs/solace-memory/internal/store"
	"github.com/solace-labs/solace-memory/internal/store/failover"
	"github.com/solace-labs/solace-memory/internal/store/localfile"
	"github.com/solace-labs/solace-memory/internal/store/postgres"
	"github.com/solace-labs/solace-memory/internal/summarizer"
)

func main() {
	log := logger.New("memory-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Msg("Memory service starting…")

	// -------- Storage tiers -----------------
	ctx := context.Background()

	local, err := localfile.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("Local tier unavailable")
	}

	var (
		remote store.Store
		pinger api.HealthPinger
	)
	if cfg.PostgresDSN != "" {
		if err := postgres.Bootstrap(ctx, cfg.PostgresDSN); err != nil {
			// Remote bootstrap failure degrades to local-only rather than
			// aborting startup.
			log.Warn().Err(err).Msg("Remote tier bootstrap failed, running local-only")
		} else {
			db, err := postgres.Open(cfg.PostgresDSN)
			if err != nil {
				log.Warn().Err(err).Msg("Remote tier unreachable, running local-only")
			} else {
				remote = postgres.NewWithDB(db)
				if hp, ok := remote.(api.HealthPinger); ok {
					pinger = hp
				}
			}
		}
	} else {
		log.Info().Msg("No remote DSN configured, running local-only")
	}

	storageLayer := failover.New(remote, local, cfg.RemoteTimeout, log)

	// -------- Summarizer --------------------
	var sum summarizer.Summarizer
	if cfg.SummarizerURL != "" {
		sum = summarizer.NewOpenAIClient(cfg.SummarizerURL, cfg.SummarizerKey, cfg.SummarizerModel)
	} else {
		log.Info().Msg("No summarizer endpoint configured, using deterministic mock")
		sum = summarizer.NewMock()
	}

	// -------- Router & Server --------------
	router := api.NewRouter(storageLayer, sum, pinger, cfg.CORSOrigins, log)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
