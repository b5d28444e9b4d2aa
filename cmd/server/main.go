package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagefold/readercore/internal/api"
	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/config"
	"github.com/pagefold/readercore/internal/session"
	"github.com/pagefold/readercore/internal/store"
	"github.com/pagefold/readercore/internal/summarize"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	kv, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// LLM pipeline is optional; without provider keys the reader still
	// serves search and annotations.
	var pipeline *summarize.Pipeline
	var llm *summarize.Client
	if cfg.SummarizationEnabled() {
		llm = summarize.NewClient(cfg.OpenRouterAPIKey, cfg.CohereAPIKey,
			cfg.PrimaryModel, cfg.FallbackModel, cfg.CohereModel, log)
		cache := summarize.NewCache(kv, cfg.SummaryTTL, log)
		pipeline = summarize.NewPipeline(llm, cache, log)
	} else {
		log.Warn("no LLM provider keys set, summarization disabled")
	}

	shelf := session.NewShelf(cfg.ShelfDir, kv, cfg.PageChars, session.Options{
		Chunk: chunk.Config{
			ChunkSize:       cfg.ChunkSize,
			Overlap:         cfg.ChunkOverlap,
			MinSectionChars: cfg.MinSectionChars,
		},
		RestoreDebounce: cfg.RestoreDebounce,
		Pipeline:        pipeline,
		Log:             log,
	})

	srv := api.NewServer(shelf, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		shelf.CloseAll()
		if llm != nil {
			llm.Close()
		}
		kv.Close()
	}()

	log.Info("starting readercore", "port", cfg.Port, "shelf", cfg.ShelfDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (store.KV, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.OpenSQLite(cfg.StorePath)
	case "file":
		return store.OpenFile(cfg.StorePath)
	case "memory":
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
