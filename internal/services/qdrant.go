package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

// VocabularyIndex stores one vector per vocabulary term and answers nearest
// term queries for document passages.
type VocabularyIndex interface {
	VocabularyRecall
	InitCollection(ctx context.Context, vectorSize uint64) error
	IndexTerms(ctx context.Context, terms []string) (int, error)
}

type SearchResult struct {
	Term  string
	Score float32
}

// termNamespace seeds deterministic point IDs so re-ingesting a term
// overwrites its previous point.
var termNamespace = uuid.MustParse("6f1c0c52-8a7e-4a53-9d4b-5f1f8a2d7c31")

type qdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	embedder       Embedder
	chunker        TextChunker
	threshold      float32
	perChunk       uint64
	logger         *zap.Logger
}

type VocabularyIndexConfig struct {
	URL        string
	APIKey     string
	Collection string
	Threshold  float64
	PerChunk   int
}

func NewVocabularyIndex(cfg VocabularyIndexConfig, embedder Embedder, l *zap.Logger) (VocabularyIndex, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	perChunk := cfg.PerChunk
	if perChunk <= 0 {
		perChunk = 5
	}

	return &qdrantIndex{
		client:         client,
		collectionName: cfg.Collection,
		embedder:       embedder,
		chunker:        NewTextChunker(400, 1),
		threshold:      float32(cfg.Threshold),
		perChunk:       uint64(perChunk),
		logger:         logger.WithFields(l, zap.String("collection", cfg.Collection)),
	}, nil
}

// InitCollection creates the cosine collection when it does not exist yet.
func (q *qdrantIndex) InitCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		q.logger.Info("vocabulary collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("vocabulary collection created", zap.Uint64("vector_size", vectorSize))
	return nil
}

// IndexTerms embeds and upserts terms. It returns the number of points written.
func (q *qdrantIndex) IndexTerms(ctx context.Context, terms []string) (int, error) {
	if len(terms) == 0 {
		return 0, nil
	}

	vectors, err := q.embedder.EmbedStrings(ctx, terms)
	if err != nil {
		return 0, fmt.Errorf("failed to embed vocabulary: %w", err)
	}
	if len(vectors) != len(terms) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d terms", len(vectors), len(terms))
	}

	points := make([]*qdrant.PointStruct, len(terms))
	for i, term := range terms {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(termPointID(term).String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"term": term,
			}),
		}
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert points: %w", err)
	}

	return len(points), nil
}

// Recall implements VocabularyRecall. Each chunk of text is embedded and the
// closest terms above the score threshold are returned.
func (q *qdrantIndex) Recall(ctx context.Context, text string) ([]string, error) {
	chunks := q.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := q.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}

	seen := make(map[string]struct{})
	var terms []string
	for _, vec := range vectors {
		results, err := q.search(ctx, vec)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if _, dup := seen[r.Term]; dup {
				continue
			}
			seen[r.Term] = struct{}{}
			terms = append(terms, r.Term)
		}
	}

	q.logger.Debug("vocabulary recall", zap.Int("chunks", len(chunks)), zap.Int("terms", len(terms)))
	return terms, nil
}

func (q *qdrantIndex) search(ctx context.Context, vector []float32) ([]SearchResult, error) {
	threshold := q.threshold
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(q.perChunk),
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []SearchResult
	for _, point := range points {
		term, ok := point.Payload["term"]
		if !ok {
			continue
		}
		if val, ok := term.GetKind().(*qdrant.Value_StringValue); ok && val.StringValue != "" {
			results = append(results, SearchResult{Term: val.StringValue, Score: point.Score})
		}
	}

	return results, nil
}

func termPointID(term string) uuid.UUID {
	return uuid.NewSHA1(termNamespace, []byte(NormalizeSkill(term)))
}
