package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubRecall struct {
	terms []string
	err   error
	calls int
}

func (s *stubRecall) Recall(ctx context.Context, text string) ([]string, error) {
	s.calls++
	return s.terms, s.err
}

func TestVocabularyBoundaries(t *testing.T) {
	vocab := DefaultVocabulary()

	found := vocab.Find("Experienced in JavaScript and C++ development, Machine-Learning.")
	assert.ElementsMatch(t, []string{"javascript", "c++", "machine learning"}, found)
	assert.NotContains(t, found, "java")
	assert.NotContains(t, found, "c")

	found = vocab.Find("Java, C and C# on .NET")
	assert.Contains(t, found, "java")
	assert.Contains(t, found, "c")
	assert.Contains(t, found, "c#")
	assert.Contains(t, found, ".net")
}

func TestVocabularySeparatorsInsideTerms(t *testing.T) {
	vocab, err := ParseVocabulary(strings.NewReader("# comment\nspring boot\nSpring-Boot\n\nci/cd\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"spring boot", "ci/cd"}, vocab.Terms())
	assert.Equal(t, []string{"spring boot"}, vocab.Find("Built services in spring_boot"))
	assert.Equal(t, []string{"spring boot"}, vocab.Find("SPRING   BOOT"))
	assert.Empty(t, vocab.Find("springboot"))
	assert.True(t, vocab.Contains("Spring_Boot"))
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary("/nonexistent/vocabulary.txt")
	assert.Error(t, err)

	vocab, err := LoadVocabulary("")
	require.NoError(t, err)
	assert.Greater(t, vocab.Len(), 100)
}

func TestOccursIn(t *testing.T) {
	assert.True(t, OccursIn("Machine Learning", "strong machine-learning background"))
	assert.False(t, OccursIn("java", "javascript only"))
	assert.False(t, OccursIn("", "anything"))
}

func TestExtractVocabularyStrategy(t *testing.T) {
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyVocabulary)

	skills := ex.Extract(context.Background(), sampleResume, []Entity{{Text: "Snowflake", Label: LabelOrg}})

	assert.ElementsMatch(t,
		[]string{"python", "machine learning", "sql", "docker", "rest api", "fastapi", "postgresql"},
		skills.Sorted())
}

func TestExtractNERStrategy(t *testing.T) {
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyNER)

	entities := []Entity{
		{Text: "Snowflake Cortex", Label: LabelProduct},
		{Text: "X", Label: LabelProduct},
		{Text: "Jane Doe", Label: LabelPerson},
		{Text: "info@acme.com", Label: LabelOrg},
	}
	skills := ex.Extract(context.Background(), "Worked with Python.", entities)

	assert.Equal(t, []string{"python", "snowflake cortex"}, skills.Sorted())
}

func TestExtractEmbeddingStrategy(t *testing.T) {
	recall := &stubRecall{terms: []string{"GraphQL", "http://spam"}}
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyEmbedding, WithVocabularyRecall(recall))

	skills := ex.Extract(context.Background(), "Designed query layers for the API.", nil)

	assert.Equal(t, 1, recall.calls)
	assert.Equal(t, []string{"graphql"}, skills.Sorted())
}

func TestExtractRecallFailureIsLogged(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	recall := &stubRecall{err: errors.New("qdrant down")}
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyEmbedding,
		WithVocabularyRecall(recall), WithSkillLogger(zap.New(core)))

	skills := ex.Extract(context.Background(), "Go and Docker", nil)

	assert.Equal(t, []string{"docker", "go"}, skills.Sorted())
	require.Equal(t, 1, observed.FilterMessage("vocabulary recall failed").Len())
}

func TestExtractNounPhrases(t *testing.T) {
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyVocabulary, WithNounPhrases(true))

	skills := ex.Extract(context.Background(), "Led the Data Platform Team and built Kafka Streams.", nil)

	assert.ElementsMatch(t, []string{"data platform team", "kafka streams", "kafka"}, skills.Sorted())
}

func TestExtractNothingFound(t *testing.T) {
	ex := NewSkillExtractor(DefaultVocabulary(), StrategyVocabulary)

	skills := ex.Extract(context.Background(), "I enjoy long walks.", nil)
	assert.Equal(t, 0, skills.Len())
	assert.Equal(t, []string{NotAvailable}, skills.SkillList())
}

func TestParseSkillStrategy(t *testing.T) {
	s, err := ParseSkillStrategy(" NER ")
	require.NoError(t, err)
	assert.Equal(t, StrategyNER, s)

	s, err = ParseSkillStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyVocabulary, s)

	_, err = ParseSkillStrategy("magic")
	assert.Error(t, err)
}
