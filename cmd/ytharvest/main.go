// Command ytharvest runs one harvest cycle: authenticate, enumerate the
// caller's subscriptions, store recent videos and their statistics, persist
// the processed-channel checkpoint.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ytharvest/checkpoint"
	"ytharvest/config"
	"ytharvest/harvest"
	"ytharvest/storage"
	"ytharvest/youtube"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ytharvest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; the real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))

	ctx := context.Background()

	svc, err := youtube.NewService(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	store, err := storage.Open(cfg.DatabaseFile)
	if err != nil {
		return err
	}
	defer store.Close()

	var checkpoints checkpoint.Store
	switch cfg.CheckpointBackend {
	case config.BackendDB:
		checkpoints, err = checkpoint.NewSQLStore(store.DB())
		if err != nil {
			return err
		}
	default:
		checkpoints = checkpoint.NewFileStore(cfg.CheckpointFile)
	}

	pacer := harvest.NewTokenBucketPacer(cfg.VideosPerSecond, cfg.PagesPerSecond)
	h := harvest.New(youtube.NewClient(svc), store, checkpoints, pacer, cfg.WindowDays)

	if _, err := h.Run(ctx); err != nil {
		return fmt.Errorf("harvest run: %w", err)
	}
	return nil
}
