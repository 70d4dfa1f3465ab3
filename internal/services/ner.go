package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

// EntityRecognizer finds named entities in a document.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

var knownLabels = map[EntityLabel]struct{}{
	LabelPerson: {}, LabelOrg: {}, LabelProduct: {},
	LabelWorkOfArt: {}, LabelGPE: {}, LabelLoc: {},
}

type llmEntityRecognizer struct {
	gen     TextGenerator
	prompts *PromptBuilder
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMEntityRecognizer asks a language model for entities. Entities that do
// not occur in the document or carry an unknown label are dropped.
func NewLLMEntityRecognizer(gen TextGenerator, timeout time.Duration, l *zap.Logger) EntityRecognizer {
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	return &llmEntityRecognizer{
		gen:     gen,
		prompts: NewPromptBuilder(),
		timeout: timeout,
		logger:  logger.OrNop(l),
	}
}

type entitiesResponse struct {
	Entities []Entity `json:"entities"`
}

// Recognize implements EntityRecognizer.
func (r *llmEntityRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	raw, err := generateWithin(ctx, r.gen, r.timeout, r.prompts.BuildEntityPrompt(text))
	if err != nil {
		return nil, err
	}

	var resp entitiesResponse
	if err := decodeStrict(raw, &resp, "entities"); err != nil {
		return nil, err
	}

	var out []Entity
	for _, e := range resp.Entities {
		e.Text = strings.TrimSpace(e.Text)
		e.Label = EntityLabel(strings.ToUpper(string(e.Label)))
		if _, ok := knownLabels[e.Label]; !ok || e.Text == "" {
			continue
		}
		if !containsFold(text, e.Text) {
			continue
		}
		out = append(out, e)
	}

	r.logger.Debug("entities recognized", zap.Int("proposed", len(resp.Entities)), zap.Int("kept", len(out)))
	return out, nil
}
