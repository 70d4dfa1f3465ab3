package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

type SkillStrategy string

const (
	StrategyVocabulary SkillStrategy = "vocabulary"
	StrategyNER        SkillStrategy = "ner"
	StrategyEmbedding  SkillStrategy = "embedding"
)

func ParseSkillStrategy(s string) (SkillStrategy, error) {
	switch SkillStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyVocabulary:
		return StrategyVocabulary, nil
	case StrategyNER:
		return StrategyNER, nil
	case StrategyEmbedding:
		return StrategyEmbedding, nil
	}
	return "", fmt.Errorf("unknown skill strategy %q", s)
}

// UsesEntities reports whether the strategy consumes named entities.
func (s SkillStrategy) UsesEntities() bool {
	return s == StrategyNER || s == StrategyEmbedding
}

// VocabularyRecall proposes vocabulary terms that are semantically close to
// passages of a document.
type VocabularyRecall interface {
	Recall(ctx context.Context, text string) ([]string, error)
}

type SkillExtractor interface {
	Extract(ctx context.Context, text string, entities []Entity) SkillSet
}

type SkillExtractorOption func(*skillExtractor)

func WithNounPhrases(enabled bool) SkillExtractorOption {
	return func(e *skillExtractor) { e.nounPhrases = enabled }
}

func WithVocabularyRecall(r VocabularyRecall) SkillExtractorOption {
	return func(e *skillExtractor) { e.recall = r }
}

func WithSkillLogger(l *zap.Logger) SkillExtractorOption {
	return func(e *skillExtractor) { e.logger = logger.OrNop(l) }
}

type skillExtractor struct {
	vocab       *Vocabulary
	strategy    SkillStrategy
	nounPhrases bool
	recall      VocabularyRecall
	logger      *zap.Logger
}

func NewSkillExtractor(vocab *Vocabulary, strategy SkillStrategy, opts ...SkillExtractorOption) SkillExtractor {
	e := &skillExtractor{
		vocab:    vocab,
		strategy: strategy,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String(logger.FieldStrategy, string(strategy)))
	return e
}

// Extract implements SkillExtractor. Layers are unioned; a failing recall
// layer is logged and skipped.
func (e *skillExtractor) Extract(ctx context.Context, text string, entities []Entity) SkillSet {
	var candidates []string

	candidates = append(candidates, e.vocab.Find(text)...)

	if e.strategy.UsesEntities() {
		candidates = append(candidates, entitySkills(entities)...)
	}

	if e.strategy == StrategyEmbedding {
		if e.recall == nil {
			e.logger.Warn("embedding strategy without a vocabulary index, skipping recall")
		} else if recalled, err := e.recall.Recall(ctx, text); err != nil {
			e.logger.Warn("vocabulary recall failed", zap.Error(err))
		} else {
			candidates = append(candidates, recalled...)
		}
	}

	if e.nounPhrases {
		candidates = append(candidates, nounPhrases(text)...)
	}

	skills := make(SkillSet)
	for _, c := range candidates {
		if looksLikeContact(c) {
			continue
		}
		skills.Add(c)
	}

	e.logger.Debug("skills extracted", zap.Int("count", skills.Len()))
	return skills
}

var skillEntityLabels = map[EntityLabel]struct{}{
	LabelOrg:       {},
	LabelProduct:   {},
	LabelWorkOfArt: {},
}

func entitySkills(entities []Entity) []string {
	var out []string
	for _, ent := range entities {
		if _, ok := skillEntityLabels[ent.Label]; !ok {
			continue
		}
		if t := strings.TrimSpace(ent.Text); len([]rune(t)) > 1 {
			out = append(out, t)
		}
	}
	return out
}

var contactFragments = []string{"@", "http", "www.", "://", ".com"}

func looksLikeContact(candidate string) bool {
	return containsAny(strings.ToLower(candidate), contactFragments)
}

// nounPhrases returns runs of two or three consecutive capitalized words.
// Punctuation after a word ends the run.
func nounPhrases(text string) []string {
	var (
		out []string
		run []string
	)

	flush := func() {
		if len(run) >= 2 && len(run) <= 3 {
			out = append(out, strings.Join(run, " "))
		}
		run = run[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		for _, tok := range strings.Fields(line) {
			word := strings.TrimRightFunc(tok, unicode.IsPunct)
			closes := word != tok

			first, _ := firstRune(word)
			if word == "" || !unicode.IsUpper(first) {
				flush()
				continue
			}

			run = append(run, word)
			if closes {
				flush()
			}
		}
		flush()
	}

	return out
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}
