package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/logger"
)

type MatchMode string

const (
	MatchExactMode    MatchMode = "exact"
	MatchSemanticMode MatchMode = "semantic"
)

const DefaultSimilarityThreshold = 0.6

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchExactMode:
		return MatchExactMode, nil
	case MatchSemanticMode:
		return MatchSemanticMode, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

type MatchOptions struct {
	Mode      MatchMode
	Threshold float64
}

type MatchReport struct {
	Matched         []string  `json:"matched_skills"`
	Missing         []string  `json:"missing_skills"`
	MatchPercentage float64   `json:"match_percentage"`
	Mode            MatchMode `json:"mode"`
	Degraded        bool      `json:"degraded,omitempty"`
	ResumeCount     int       `json:"resume_skill_count"`
	JDCount         int       `json:"jd_skill_count"`
}

type Matcher interface {
	Match(ctx context.Context, resume, jd SkillSet, opts MatchOptions) MatchReport
}

type matcher struct {
	embedder Embedder
	logger   *zap.Logger
}

// NewMatcher returns a Matcher. A nil embedder makes semantic requests fall
// back to exact matching.
func NewMatcher(embedder Embedder, l *zap.Logger) Matcher {
	return &matcher{embedder: embedder, logger: logger.OrNop(l)}
}

// MatchExact computes matched = resume ∩ jd and missing = jd − resume.
func MatchExact(resume, jd SkillSet) MatchReport {
	matched := make(SkillSet)
	missing := make(SkillSet)
	for s := range jd {
		if resume.Has(s) {
			matched[s] = struct{}{}
		} else {
			missing[s] = struct{}{}
		}
	}

	return newReport(matched, missing, resume, jd, MatchExactMode)
}

// Match implements Matcher. It never fails; embedding errors degrade the
// result to exact mode.
func (m *matcher) Match(ctx context.Context, resume, jd SkillSet, opts MatchOptions) MatchReport {
	if opts.Mode != MatchSemanticMode {
		return MatchExact(resume, jd)
	}
	if jd.Len() == 0 || resume.Len() == 0 {
		// nothing to embed, the exact partition is already final
		r := MatchExact(resume, jd)
		r.Mode = MatchSemanticMode
		return r
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	log := m.logger.With(zap.String(logger.FieldMatchMode, string(MatchSemanticMode)))

	if m.embedder == nil {
		log.Warn("no embedder configured, falling back to exact match")
		return degraded(MatchExact(resume, jd))
	}

	resumeList := resume.Sorted()
	jdList := jd.Sorted()

	vectors, err := m.embedder.EmbedStrings(ctx, append(append([]string{}, resumeList...), jdList...))
	if err == nil && len(vectors) != len(resumeList)+len(jdList) {
		err = fmt.Errorf("embedder returned %d vectors for %d skills", len(vectors), len(resumeList)+len(jdList))
	}
	if err != nil {
		log.Warn("embedding failed, falling back to exact match", zap.Error(err))
		return degraded(MatchExact(resume, jd))
	}

	resumeVecs := vectors[:len(resumeList)]
	jdVecs := vectors[len(resumeList):]

	matched := make(SkillSet)
	missing := make(SkillSet)
	for j, skill := range jdList {
		if resume.Has(skill) || bestSimilarity(jdVecs[j], resumeVecs) >= threshold {
			matched[skill] = struct{}{}
			continue
		}
		missing[skill] = struct{}{}
	}

	return newReport(matched, missing, resume, jd, MatchSemanticMode)
}

func bestSimilarity(v []float32, candidates [][]float32) float64 {
	best := math.Inf(-1)
	for _, c := range candidates {
		if s := CosineSimilarity(v, c); s > best {
			best = s
		}
	}
	return best
}

func degraded(r MatchReport) MatchReport {
	r.Degraded = true
	return r
}

func newReport(matched, missing, resume, jd SkillSet, mode MatchMode) MatchReport {
	return MatchReport{
		Matched:         matched.Sorted(),
		Missing:         missing.Sorted(),
		MatchPercentage: matchPercentage(matched.Len(), jd.Len()),
		Mode:            mode,
		ResumeCount:     resume.Len(),
		JDCount:         jd.Len(),
	}
}

func matchPercentage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*10000) / 100
}
