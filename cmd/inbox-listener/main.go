package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/listener"
	"procureai/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := &log.DefaultLogger
	extractor, err := buildExtractor(cfg, logger)
	must(err)

	svc := listener.NewService(db, extractor, cfg, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func buildExtractor(cfg config.Config, logger *log.Logger) (ai.Extractor, error) {
	if cfg.AIMock {
		return ai.Mock{}, nil
	}
	completer, err := ai.NewGeminiCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	var extractor ai.Extractor = ai.NewService(completer, logger)
	if cfg.AIFallbackSample {
		extractor = ai.NewSampleFallback(extractor, logger)
	}
	return extractor, nil
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
