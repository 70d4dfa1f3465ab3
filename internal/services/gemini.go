package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/skill-matcher/internal/logger"
)

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiService interface {
	TextGenerator
	Embedder
	Model() string
	EmbedModel() string
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	EmbedModel  string
	Temperature float32
	Retry       RetryConfig
}

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultEmbedModel  = "text-embedding-004"

	embedBatchSize = 100
	maxEmbedRunes  = 8000
)

type geminiService struct {
	client      *genai.Client
	modelName   string
	embedModel  string
	temperature float32
	retry       RetryConfig
	logger      *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig, l *zap.Logger) (GeminiService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}

	return &geminiService{
		client:      client,
		modelName:   model,
		embedModel:  embedModel,
		temperature: cfg.Temperature,
		retry:       cfg.Retry,
		logger:      logger.WithFields(l, logger.LLMFields("gemini", model)...),
	}, nil
}

func (g *geminiService) Model() string {
	return g.modelName
}

func (g *geminiService) EmbedModel() string {
	return g.embedModel
}

// GenerateText implements TextGenerator. Failed calls are retried with
// backoff.
func (g *geminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return retryDo(ctx, g.retry, func(attempt int, err error) {
		g.logger.Warn("generation attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}, func() (string, error) {
		return g.generate(ctx, prompt)
	})
}

func (g *geminiService) generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
		// first candidate with text wins
		if builder.Len() > 0 {
			break
		}
	}

	text := builder.String()
	if text == "" {
		return "", errors.New("no text content in response")
	}

	g.logger.Debug("gemini response received",
		zap.Int("chars", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 120)))

	return text, nil
}

// EmbedStrings implements Embedder. Inputs are sent in batches.
func (g *geminiService) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch := texts[start:end]

		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			if runes := []rune(t); len(runes) > maxEmbedRunes {
				t = string(runes[:maxEmbedRunes])
			}
			contents[i] = &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: t}},
			}
		}

		result, err := retryDo(ctx, g.retry, func(attempt int, err error) {
			g.logger.Warn("embedding attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}, func() (*genai.EmbedContentResponse, error) {
			return g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if result == nil || len(result.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding result size mismatch for batch of %d", len(batch))
		}

		for _, e := range result.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, errors.New("empty embedding in result")
			}
			out = append(out, e.Values)
		}
	}

	return out, nil
}
