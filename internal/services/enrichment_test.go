package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response string
	err      error
	delay    time.Duration
	calls    atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.delay > 0 {
		// ignores ctx on purpose
		time.Sleep(s.delay)
	}
	return s.response, s.err
}

func (s *stubGenerator) recordedPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

const enrichResumeText = `Jane Doe
jane@example.com
Skills: Python, Kubernetes, Terraform`

func baseProfile() ResumeProfile {
	return ResumeProfile{
		Fields: CandidateFields{Name: Found("Jane Doe"), Email: Found("jane@example.com")},
		Skills: []string{"python"},
	}
}

func TestEnrichProfileMergesEvidencedValues(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `{
  "name": "Jane Doe",
  "email": "jane@example.com",
  "phone": "+1 555 000 0000",
  "linkedin_url": "Not Available",
  "github_url": "Not Available",
  "address": "Not Available",
  "skills": ["Python", "Kubernetes", "Terraform", "Haskell", "info@spam.com"]
}` + "\n```"}

	out := NewLLMEnricher(gen, time.Second, nil).EnrichProfile(context.Background(), enrichResumeText, baseProfile())

	assert.Equal(t, []string{"python", "Kubernetes", "Terraform"}, out.Skills)
	assert.Equal(t, "Jane Doe", out.Fields.Name.String())
	assert.False(t, out.Fields.Phone.IsFound(), "phone is not in the resume text")
	assert.False(t, out.Fields.LinkedInURL.IsFound())
	prompts := gen.recordedPrompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Skills: Python, Kubernetes, Terraform")
}

func TestEnrichProfileAlwaysFailingGenerator(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{err: errors.New("503 unavailable")}
	in := baseProfile()

	out := NewLLMEnricher(gen, time.Second, zap.New(core)).EnrichProfile(context.Background(), enrichResumeText, in)

	assert.Equal(t, in, out)
	assert.Equal(t, 1, observed.FilterMessage("profile enrichment failed, keeping extracted profile").Len())
}

func TestEnrichProfileRejectsMalformedOutput(t *testing.T) {
	responses := []string{
		`not json at all`,
		`{"name": "Jane"}`,
		`{"name":"a","email":"b","phone":"c","linkedin_url":"d","github_url":"e","address":"f","skills":["x"],"extra":1}`,
		`{"name":"a","email":"b","phone":"c","linkedin_url":"d","github_url":"e","address":"f","skills":null}`,
		`{"name":"a","email":"b","phone":"c","linkedin_url":"d","github_url":"e","address":"f","skills":"python"}`,
		`__import__('os').system('rm -rf /')`,
	}

	for _, resp := range responses {
		gen := &stubGenerator{response: resp}
		in := baseProfile()

		out := NewLLMEnricher(gen, time.Second, nil).EnrichProfile(context.Background(), enrichResumeText, in)
		assert.Equal(t, in, out, "response %q", resp)
	}
}

func TestEnrichmentTimeoutReturnsFallback(t *testing.T) {
	gen := &stubGenerator{response: `{"skills":["Terraform"]}`, delay: 300 * time.Millisecond}

	start := time.Now()
	out := NewLLMEnricher(gen, 20*time.Millisecond, nil).EnrichJDSkills(context.Background(), enrichResumeText, []string{"python"})

	assert.Equal(t, []string{"python"}, out)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestEnrichJDSkills(t *testing.T) {
	gen := &stubGenerator{response: `Sure! {"skills": ["Kubernetes", "python", "Rust"]}`}

	out := NewLLMEnricher(gen, time.Second, nil).EnrichJDSkills(context.Background(), enrichResumeText, []string{"Python"})

	assert.Equal(t, []string{"Python", "Kubernetes"}, out)
}

func TestGenerateRecommendation(t *testing.T) {
	gen := &stubGenerator{response: `{"recommendation": "  Learn Docker.  "}`}
	e := NewLLMEnricher(gen, time.Second, nil)

	jd := []string{"docker", "go", "kubernetes"}
	cv := []string{"go", "postgresql"}
	assert.Equal(t, "Learn Docker.", e.GenerateRecommendation(context.Background(), jd, cv, []string{"docker", "kubernetes"}))

	prompts := gen.recordedPrompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "JOB SKILLS: docker, go, kubernetes")
	assert.Contains(t, prompts[0], "CANDIDATE SKILLS: go, postgresql")
	assert.Contains(t, prompts[0], "MISSING SKILLS: docker, kubernetes")

	gen.response = `{"recommendation": ""}`
	assert.Equal(t, RecommendationUnavailable, e.GenerateRecommendation(context.Background(), jd, cv, nil))

	failing := NewLLMEnricher(&stubGenerator{err: errors.New("boom")}, time.Second, nil)
	assert.Equal(t, RecommendationUnavailable, failing.GenerateRecommendation(context.Background(), jd, cv, nil))
}

func TestNoopEnricher(t *testing.T) {
	var e Enricher = NoopEnricher{}
	in := baseProfile()

	assert.Equal(t, in, e.EnrichProfile(context.Background(), "text", in))
	assert.Equal(t, []string{"go"}, e.EnrichJDSkills(context.Background(), "text", []string{"go"}))
	assert.Equal(t, RecommendationUnavailable, e.GenerateRecommendation(context.Background(), nil, nil, nil))
}

func TestDecodeStrictWrapsSentinel(t *testing.T) {
	var resp skillsResponse
	err := decodeStrict(`{"other": []}`, &resp, "skills")
	assert.ErrorIs(t, err, ErrEnrichmentFailed)

	require.NoError(t, decodeStrict("```json\n{\"skills\": [\"go\"]}\n```", &resp, "skills"))
	assert.Equal(t, []string{"go"}, resp.Skills)
}

func TestEntityRecognizerKeepsEvidencedEntities(t *testing.T) {
	gen := &stubGenerator{response: `{"entities": [
		{"text": "Jane Doe", "label": "PERSON"},
		{"text": "Kubernetes", "label": "product"},
		{"text": "Atlantis", "label": "GPE"},
		{"text": "Python", "label": "LANGUAGE"}
	]}`}

	entities, err := NewLLMEntityRecognizer(gen, time.Second, nil).Recognize(context.Background(), enrichResumeText)
	require.NoError(t, err)

	assert.Equal(t, []Entity{
		{Text: "Jane Doe", Label: LabelPerson},
		{Text: "Kubernetes", Label: LabelProduct},
	}, entities)
}

func TestEntityRecognizerFailure(t *testing.T) {
	_, err := NewLLMEntityRecognizer(&stubGenerator{err: errors.New("down")}, time.Second, nil).
		Recognize(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEnrichmentFailed)
}
