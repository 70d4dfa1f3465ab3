package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/config"
	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/services"
)

// Components holds the shared, read-only state built once per process.
type Components struct {
	Pipeline   *services.Pipeline
	Vocabulary *services.Vocabulary
	// Gemini, Embedder and Index are nil when their backends are not configured.
	Gemini   services.GeminiService
	Embedder services.Embedder
	Index    services.VocabularyIndex
	Strategy services.SkillStrategy

	redis *redis.Client
}

// Close releases network clients.
func (c *Components) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// Build wires the pipeline from configuration. Missing optional backends
// downgrade the pipeline instead of failing.
func Build(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Components, error) {
	l = logger.OrNop(l)

	strategy, err := services.ParseSkillStrategy(cfg.Pipeline.SkillStrategy)
	if err != nil {
		return nil, err
	}
	mode, err := services.ParseMatchMode(cfg.Pipeline.MatchMode)
	if err != nil {
		return nil, err
	}

	vocab := services.DefaultVocabulary()
	if cfg.Pipeline.VocabularyPath != "" {
		vocab, err = services.LoadVocabulary(cfg.Pipeline.VocabularyPath)
		if err != nil {
			return nil, err
		}
	}
	l.Info("vocabulary loaded", zap.Int("terms", vocab.Len()))

	c := &Components{Vocabulary: vocab}

	if cfg.Gemini.APIKey != "" {
		retry := services.DefaultRetryConfig
		retry.MaxRetries = cfg.Gemini.MaxRetries
		c.Gemini, err = services.NewGeminiService(ctx, services.GeminiConfig{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			EmbedModel: cfg.Gemini.EmbedModel,
			Retry:      retry,
		}, l)
		if err != nil {
			return nil, err
		}
		c.Embedder = c.Gemini
		l.Info("gemini initialized", zap.String(logger.FieldModel, c.Gemini.Model()))
	} else {
		l.Warn("GEMINI_API_KEY not set, enrichment and embeddings disabled")
	}

	if c.Embedder != nil && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		c.redis = redis.NewClient(opts)
		c.Embedder = services.NewCachedEmbedder(c.Embedder, c.redis, c.Gemini.EmbedModel(), cfg.Redis.TTL, l)
		l.Info("embedding cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	if c.Embedder != nil && cfg.Qdrant.URL != "" {
		c.Index, err = services.NewVocabularyIndex(services.VocabularyIndexConfig{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Threshold:  cfg.Pipeline.VocabMatchThreshold,
		}, c.Embedder, l)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case strategy == services.StrategyEmbedding && c.Index == nil:
		l.Warn("embedding strategy needs gemini and qdrant, using vocabulary")
		strategy = services.StrategyVocabulary
	case strategy == services.StrategyNER && c.Gemini == nil:
		l.Warn("ner strategy needs gemini, using vocabulary")
		strategy = services.StrategyVocabulary
	}
	c.Strategy = strategy

	skillOpts := []services.SkillExtractorOption{
		services.WithNounPhrases(cfg.Pipeline.NounPhrases),
		services.WithSkillLogger(l),
	}
	if strategy == services.StrategyEmbedding {
		skillOpts = append(skillOpts, services.WithVocabularyRecall(c.Index))
	}

	var (
		entities services.EntityRecognizer
		enricher services.Enricher = services.NoopEnricher{}
	)
	if c.Gemini != nil {
		entities = services.NewLLMEntityRecognizer(c.Gemini, cfg.Pipeline.EnrichTimeout, l)
		enricher = services.NewLLMEnricher(c.Gemini, cfg.Pipeline.EnrichTimeout, l)
	}

	c.Pipeline = services.NewPipeline(
		services.PipelineConfig{
			Strategy:      strategy,
			MinTextLength: cfg.Pipeline.MinTextLength,
			Match: services.MatchOptions{
				Mode:      mode,
				Threshold: cfg.Pipeline.SimilarityThreshold,
			},
			EnrichEnabled: cfg.Pipeline.EnrichEnabled && c.Gemini != nil,
		},
		services.NewTextExtractor(),
		services.NewSkillExtractor(vocab, strategy, skillOpts...),
		entities,
		services.NewMatcher(c.Embedder, l),
		enricher,
		l,
	)

	l.Info("pipeline ready",
		zap.String(logger.FieldStrategy, string(strategy)),
		zap.String(logger.FieldMatchMode, string(mode)))

	return c, nil
}
