package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/bootstrap"
	"alfredoptarigan/skill-matcher/internal/config"
	"alfredoptarigan/skill-matcher/internal/logger"
)

const batchSize = 50

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build components", zap.Error(err))
	}
	defer components.Close()

	if components.Index == nil {
		log.Fatal("vocabulary ingestion needs GEMINI_API_KEY and QDRANT_URL")
	}

	terms := components.Vocabulary.Terms()
	if len(terms) == 0 {
		log.Fatal("vocabulary is empty")
	}

	probe, err := components.Embedder.EmbedStrings(ctx, terms[:1])
	if err != nil || len(probe) != 1 {
		log.Fatal("failed to probe embedding size", zap.Error(err))
	}

	if err := components.Index.InitCollection(ctx, uint64(len(probe[0]))); err != nil {
		log.Fatal("failed to initialize collection", zap.Error(err))
	}

	indexed, failed := 0, 0
	for start := 0; start < len(terms); start += batchSize {
		end := min(start+batchSize, len(terms))

		n, err := components.Index.IndexTerms(ctx, terms[start:end])
		if err != nil {
			failed += end - start
			log.Error("failed to index batch", zap.Int("from", start), zap.Int("to", end), zap.Error(err))
			continue
		}
		indexed += n
		log.Info("batch indexed", zap.Int("indexed", indexed), zap.Int("total", len(terms)))
	}

	log.Info("vocabulary ingestion completed",
		zap.Int("indexed", indexed),
		zap.Int("failed", failed),
		zap.String("collection", cfg.Qdrant.Collection))

	if failed > 0 {
		os.Exit(1)
	}
}
