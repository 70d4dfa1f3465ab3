package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEntities struct {
	entities []Entity
	err      error
}

func (s stubEntities) Recognize(ctx context.Context, text string) ([]Entity, error) {
	return s.entities, s.err
}

type recordingEnricher struct {
	NoopEnricher
	profileCalls int
	jdCalls      int
	extraSkill   string
	recommended  [][]string
}

func (r *recordingEnricher) EnrichProfile(ctx context.Context, text string, p ResumeProfile) ResumeProfile {
	r.profileCalls++
	p.Skills = append(p.Skills, r.extraSkill)
	return p
}

func (r *recordingEnricher) EnrichJDSkills(ctx context.Context, text string, skills []string) []string {
	r.jdCalls++
	return skills
}

func (r *recordingEnricher) GenerateRecommendation(ctx context.Context, jd, cv, missing []string) string {
	r.recommended = append(r.recommended, jd, cv, missing)
	return "learn " + missing[0]
}

func newTestPipeline(strategy SkillStrategy, entities EntityRecognizer, enricher Enricher, enrichEnabled bool) *Pipeline {
	return NewPipeline(
		PipelineConfig{Strategy: strategy, MinTextLength: 20, EnrichEnabled: enrichEnabled},
		NewTextExtractor(),
		NewSkillExtractor(DefaultVocabulary(), strategy),
		entities,
		NewMatcher(nil, nil),
		enricher,
		nil,
	)
}

const sampleJob = `We are hiring a backend engineer.
Requirements: Python, Docker, Kubernetes and SQL.`

func TestPipelineRunEndToEnd(t *testing.T) {
	p := newTestPipeline(StrategyVocabulary, nil, nil, false)

	out, err := p.Run(context.Background(), MatchRequest{
		Resume:    Document{Filename: "cv.txt", Kind: KindText, Data: []byte(sampleResume)},
		Job:       TextDocument(sampleJob),
		Recommend: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", out.Resume.Fields.Name.String())
	assert.Equal(t, []string{"docker", "kubernetes", "python", "sql"}, out.Job.Skills.Sorted())
	assert.Equal(t, []string{"docker", "python", "sql"}, out.Report.Matched)
	assert.Equal(t, []string{"kubernetes"}, out.Report.Missing)
	assert.Equal(t, 75.0, out.Report.MatchPercentage)
	assert.Equal(t, MatchExactMode, out.Report.Mode)
	assert.Equal(t, RecommendationUnavailable, out.Recommendation)
}

func TestPipelineRunPropagatesExtractionErrors(t *testing.T) {
	p := newTestPipeline(StrategyVocabulary, nil, nil, false)

	_, err := p.Run(context.Background(), MatchRequest{
		Resume: Document{Filename: "cv.pdf", Kind: KindPDF, Data: []byte("garbage")},
		Job:    TextDocument(sampleJob),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, err.Error(), "cv.pdf")
}

func TestPipelineTextTooShort(t *testing.T) {
	p := newTestPipeline(StrategyVocabulary, nil, nil, false)

	_, err := p.ExtractText(context.Background(), TextDocument("   Go   "))
	assert.ErrorIs(t, err, ErrTextTooShort)
	assert.True(t, IsCallerError(err))
}

func TestPipelineEnrichmentIsGated(t *testing.T) {
	enricher := &recordingEnricher{extraSkill: "Terraform"}

	disabled := newTestPipeline(StrategyVocabulary, nil, enricher, false)
	a := disabled.AnalyzeResumeText(context.Background(), sampleResume, true)
	assert.False(t, a.Skills.Has("terraform"))
	assert.Zero(t, enricher.profileCalls)

	enabled := newTestPipeline(StrategyVocabulary, nil, enricher, true)
	a = enabled.AnalyzeResumeText(context.Background(), sampleResume, true)
	assert.True(t, a.Skills.Has("terraform"))
	assert.Equal(t, 1, enricher.profileCalls)

	enabled.AnalyzeResumeText(context.Background(), sampleResume, false)
	assert.Equal(t, 1, enricher.profileCalls)
}

func TestPipelineRecommendation(t *testing.T) {
	enricher := &recordingEnricher{}
	p := newTestPipeline(StrategyVocabulary, nil, enricher, true)

	out, err := p.Run(context.Background(), MatchRequest{
		Resume:    TextDocument(sampleResume),
		Job:       TextDocument(sampleJob),
		Enrich:    true,
		Recommend: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "learn kubernetes", out.Recommendation)

	require.Len(t, enricher.recommended, 3)
	assert.Equal(t, []string{"docker", "kubernetes", "python", "sql"}, enricher.recommended[0])
	assert.Equal(t, out.Resume.Skills.Sorted(), enricher.recommended[1])
	assert.Equal(t, []string{"kubernetes"}, enricher.recommended[2])
}

func TestPipelineUsesEntitiesForNER(t *testing.T) {
	entities := stubEntities{entities: []Entity{
		{Text: "Jane Q. Doe", Label: LabelPerson},
		{Text: "Apache Beam", Label: LabelProduct},
	}}
	p := newTestPipeline(StrategyNER, entities, nil, false)

	a := p.AnalyzeResumeText(context.Background(), sampleResume, false)

	assert.Equal(t, "Jane Q. Doe", a.Fields.Name.String())
	assert.True(t, a.Skills.Has("apache beam"))
}

func TestPipelineEntityFailureIsTolerated(t *testing.T) {
	p := newTestPipeline(StrategyNER, stubEntities{err: errors.New("llm down")}, nil, false)

	a := p.AnalyzeResumeText(context.Background(), sampleResume, false)

	assert.Equal(t, "Jane Doe", a.Fields.Name.String())
	assert.True(t, a.Skills.Has("python"))
}

func TestPipelineMatchUsesDefaults(t *testing.T) {
	p := NewPipeline(PipelineConfig{Match: MatchOptions{Mode: MatchSemanticMode}},
		NewTextExtractor(), NewSkillExtractor(DefaultVocabulary(), StrategyVocabulary),
		nil, NewMatcher(nil, nil), nil, nil)

	r := p.Match(context.Background(), NewSkillSet("go"), NewSkillSet("go", "rust"), MatchOptions{})

	assert.True(t, r.Degraded)
	assert.Equal(t, 50.0, r.MatchPercentage)
}
