package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

const RecommendationUnavailable = "Recommendation unavailable."

const DefaultEnrichTimeout = 20 * time.Second

// ResumeProfile is what the enrichment step reads and returns for a resume.
type ResumeProfile struct {
	Fields CandidateFields `json:"fields"`
	Skills []string        `json:"skills"`
}

// Enricher fills gaps using a language model. Every method returns a usable
// value; failures fall back to the input.
type Enricher interface {
	EnrichProfile(ctx context.Context, text string, profile ResumeProfile) ResumeProfile
	EnrichJDSkills(ctx context.Context, text string, skills []string) []string
	GenerateRecommendation(ctx context.Context, jdSkills, resumeSkills, missing []string) string
}

type NoopEnricher struct{}

func (NoopEnricher) EnrichProfile(_ context.Context, _ string, profile ResumeProfile) ResumeProfile {
	return profile
}

func (NoopEnricher) EnrichJDSkills(_ context.Context, _ string, skills []string) []string {
	return skills
}

func (NoopEnricher) GenerateRecommendation(context.Context, []string, []string, []string) string {
	return RecommendationUnavailable
}

type llmEnricher struct {
	gen     TextGenerator
	prompts *PromptBuilder
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMEnricher(gen TextGenerator, timeout time.Duration, l *zap.Logger) Enricher {
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	return &llmEnricher{
		gen:     gen,
		prompts: NewPromptBuilder(),
		timeout: timeout,
		logger:  logger.OrNop(l),
	}
}

type profileResponse struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	LinkedInURL string   `json:"linkedin_url"`
	GitHubURL   string   `json:"github_url"`
	Address     string   `json:"address"`
	Skills      []string `json:"skills"`
}

type skillsResponse struct {
	Skills []string `json:"skills"`
}

type recommendationResponse struct {
	Recommendation string `json:"recommendation"`
}

// EnrichProfile implements Enricher. Model-proposed values are kept only when
// they occur in text.
func (e *llmEnricher) EnrichProfile(ctx context.Context, text string, profile ResumeProfile) ResumeProfile {
	raw, err := generateWithin(ctx, e.gen, e.timeout, e.prompts.BuildProfilePrompt(text, profile))
	if err != nil {
		e.logger.Warn("profile enrichment failed, keeping extracted profile", zap.Error(err))
		return profile
	}

	var resp profileResponse
	if err := decodeStrict(raw, &resp, "name", "email", "phone", "linkedin_url", "github_url", "address", "skills"); err != nil {
		e.logger.Warn("profile enrichment returned malformed output",
			zap.Error(err), zap.String("response", logger.TruncateForLog(raw, 200)))
		return profile
	}

	out := ResumeProfile{
		Fields: CandidateFields{
			Name:        mergeField(profile.Fields.Name, resp.Name, text),
			Email:       mergeField(profile.Fields.Email, resp.Email, text),
			Phone:       mergeField(profile.Fields.Phone, resp.Phone, text),
			LinkedInURL: mergeField(profile.Fields.LinkedInURL, resp.LinkedInURL, text),
			GitHubURL:   mergeField(profile.Fields.GitHubURL, resp.GitHubURL, text),
			Address:     mergeField(profile.Fields.Address, resp.Address, text),
		},
		Skills: mergeSkills(profile.Skills, resp.Skills, text),
	}

	e.logger.Debug("profile enriched",
		zap.Int("skills_before", len(profile.Skills)),
		zap.Int("skills_after", len(out.Skills)))

	return out
}

// EnrichJDSkills implements Enricher.
func (e *llmEnricher) EnrichJDSkills(ctx context.Context, text string, skills []string) []string {
	raw, err := generateWithin(ctx, e.gen, e.timeout, e.prompts.BuildJDSkillsPrompt(text, skills))
	if err != nil {
		e.logger.Warn("job description enrichment failed, keeping extracted skills", zap.Error(err))
		return skills
	}

	var resp skillsResponse
	if err := decodeStrict(raw, &resp, "skills"); err != nil {
		e.logger.Warn("job description enrichment returned malformed output",
			zap.Error(err), zap.String("response", logger.TruncateForLog(raw, 200)))
		return skills
	}

	return mergeSkills(skills, resp.Skills, text)
}

// GenerateRecommendation implements Enricher.
func (e *llmEnricher) GenerateRecommendation(ctx context.Context, jdSkills, resumeSkills, missing []string) string {
	raw, err := generateWithin(ctx, e.gen, e.timeout, e.prompts.BuildRecommendationPrompt(jdSkills, resumeSkills, missing))
	if err != nil {
		e.logger.Warn("recommendation failed", zap.Error(err))
		return RecommendationUnavailable
	}

	var resp recommendationResponse
	if err := decodeStrict(raw, &resp, "recommendation"); err != nil || strings.TrimSpace(resp.Recommendation) == "" {
		e.logger.Warn("recommendation returned malformed output",
			zap.Error(err), zap.String("response", logger.TruncateForLog(raw, 200)))
		return RecommendationUnavailable
	}

	return strings.TrimSpace(resp.Recommendation)
}

type generation struct {
	text string
	err  error
}

// generateWithin bounds a generator call by timeout. The result is abandoned
// at the deadline even if the generator ignores ctx.
func generateWithin(ctx context.Context, gen TextGenerator, timeout time.Duration, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		text, err := gen.GenerateText(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case g := <-done:
		if g.err != nil {
			return "", fmt.Errorf("%w: %w", ErrEnrichmentFailed, g.err)
		}
		return g.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrEnrichmentFailed, ctx.Err())
	}
}

// decodeStrict parses a model response into v. Unknown keys, missing
// required keys and null values are rejected.
func decodeStrict(raw string, v any, required ...string) error {
	payload := []byte(extractJSON(raw))

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(payload, &keys); err != nil {
		return fmt.Errorf("%w: %w", ErrEnrichmentFailed, err)
	}
	for _, k := range required {
		val, ok := keys[k]
		if !ok || bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			return fmt.Errorf("%w: missing key %q", ErrEnrichmentFailed, k)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrEnrichmentFailed, err)
	}

	return nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	endObj := strings.LastIndex(text, "}")
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return strings.TrimSpace(text)
}

func mergeField(current Field, proposed, text string) Field {
	proposed = strings.TrimSpace(proposed)
	if proposed == "" || strings.EqualFold(proposed, NotAvailable) {
		return current
	}
	if !containsFold(text, proposed) {
		return current
	}
	return Found(proposed)
}

// mergeSkills appends proposed skills that occur in text to current.
func mergeSkills(current, proposed []string, text string) []string {
	out := append([]string(nil), current...)
	seen := make(map[string]struct{}, len(current))
	for _, s := range current {
		seen[NormalizeSkill(s)] = struct{}{}
	}

	for _, s := range proposed {
		n := NormalizeSkill(s)
		if n == "" || strings.EqualFold(strings.TrimSpace(s), NotAvailable) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		if looksLikeContact(s) || !OccursIn(s, text) {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, strings.TrimSpace(s))
	}

	return out
}

func containsFold(text, sub string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(sub))
}
