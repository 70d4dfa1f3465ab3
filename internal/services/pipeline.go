package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/skill-matcher/internal/logger"
)

// Document is an uploaded file held in memory.
type Document struct {
	Filename string
	Kind     DocumentKind
	Data     []byte
}

// NewDocument derives the kind from the file name.
func NewDocument(filename string, data []byte) (Document, error) {
	kind, err := KindFromFilename(filename)
	if err != nil {
		return Document{}, err
	}
	return Document{Filename: filename, Kind: kind, Data: data}, nil
}

// TextDocument wraps pasted text.
func TextDocument(text string) Document {
	return Document{Filename: "text", Kind: KindText, Data: []byte(text)}
}

type ResumeAnalysis struct {
	Text   string
	Fields CandidateFields
	Skills SkillSet
}

type JobAnalysis struct {
	Text   string
	Skills SkillSet
}

type MatchRequest struct {
	Resume    Document
	Job       Document
	Options   MatchOptions
	Enrich    bool
	Recommend bool
}

type MatchOutcome struct {
	Resume         *ResumeAnalysis
	Job            *JobAnalysis
	Report         MatchReport
	Recommendation string
}

type PipelineConfig struct {
	Strategy      SkillStrategy
	MinTextLength int
	Match         MatchOptions
	EnrichEnabled bool
}

type Pipeline struct {
	extractor TextExtractor
	skills    SkillExtractor
	entities  EntityRecognizer
	matcher   Matcher
	enricher  Enricher
	cfg       PipelineConfig
	logger    *zap.Logger
}

// NewPipeline wires the stages. entities and enricher may be nil.
func NewPipeline(
	cfg PipelineConfig,
	extractor TextExtractor,
	skills SkillExtractor,
	entities EntityRecognizer,
	matcher Matcher,
	enricher Enricher,
	l *zap.Logger,
) *Pipeline {
	if enricher == nil {
		enricher = NoopEnricher{}
	}
	if cfg.Match.Mode == "" {
		cfg.Match.Mode = MatchExactMode
	}
	if cfg.Match.Threshold <= 0 {
		cfg.Match.Threshold = DefaultSimilarityThreshold
	}
	return &Pipeline{
		extractor: extractor,
		skills:    skills,
		entities:  entities,
		matcher:   matcher,
		enricher:  enricher,
		cfg:       cfg,
		logger:    logger.WithFields(l, zap.String(logger.FieldStrategy, string(cfg.Strategy))),
	}
}

// ExtractText turns a document into text and rejects texts shorter than the
// configured minimum.
func (p *Pipeline) ExtractText(ctx context.Context, doc Document) (string, error) {
	text, err := p.extractor.Extract(ctx, doc.Data, doc.Kind)
	if err != nil {
		return "", WithFilename(err, doc.Filename)
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < p.cfg.MinTextLength {
		return "", &DocumentError{Op: "extract", Kind: doc.Kind, Filename: doc.Filename, BaseErr: ErrTextTooShort}
	}

	p.logger.Debug("text extracted",
		append(logger.DocumentFields(doc.Filename, string(doc.Kind)), zap.Int("chars", len(text)))...)

	return text, nil
}

// ExtractSkills runs the configured skill strategy over text.
func (p *Pipeline) ExtractSkills(ctx context.Context, text string) SkillSet {
	return p.skills.Extract(ctx, text, p.recognize(ctx, text))
}

func (p *Pipeline) recognize(ctx context.Context, text string) []Entity {
	if p.entities == nil || !p.cfg.Strategy.UsesEntities() {
		return nil
	}
	entities, err := p.entities.Recognize(ctx, text)
	if err != nil {
		p.logger.Warn("entity recognition failed, continuing without entities", zap.Error(err))
		return nil
	}
	return entities
}

// AnalyzeResumeText extracts fields and skills, optionally enriched.
func (p *Pipeline) AnalyzeResumeText(ctx context.Context, text string, enrich bool) *ResumeAnalysis {
	entities := p.recognize(ctx, text)

	profile := ResumeProfile{
		Fields: ExtractFieldsWithEntities(text, entities),
		Skills: p.skills.Extract(ctx, text, entities).Sorted(),
	}

	if enrich && p.cfg.EnrichEnabled {
		profile = p.enricher.EnrichProfile(ctx, text, profile)
	}

	return &ResumeAnalysis{
		Text:   text,
		Fields: profile.Fields,
		Skills: NormalizeSkills(profile.Skills),
	}
}

func (p *Pipeline) AnalyzeResume(ctx context.Context, doc Document, enrich bool) (*ResumeAnalysis, error) {
	text, err := p.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeResumeText(ctx, text, enrich), nil
}

func (p *Pipeline) AnalyzeJobText(ctx context.Context, text string, enrich bool) *JobAnalysis {
	skills := p.ExtractSkills(ctx, text).Sorted()

	if enrich && p.cfg.EnrichEnabled {
		skills = p.enricher.EnrichJDSkills(ctx, text, skills)
	}

	return &JobAnalysis{Text: text, Skills: NormalizeSkills(skills)}
}

func (p *Pipeline) AnalyzeJob(ctx context.Context, doc Document, enrich bool) (*JobAnalysis, error) {
	text, err := p.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeJobText(ctx, text, enrich), nil
}

// Match fills unset options from the pipeline defaults.
func (p *Pipeline) Match(ctx context.Context, resume, jd SkillSet, opts MatchOptions) MatchReport {
	if opts.Mode == "" {
		opts.Mode = p.cfg.Match.Mode
	}
	if opts.Threshold <= 0 {
		opts.Threshold = p.cfg.Match.Threshold
	}
	return p.matcher.Match(ctx, resume, jd, opts)
}

func (p *Pipeline) EnrichProfile(ctx context.Context, text string, profile ResumeProfile) ResumeProfile {
	return p.enricher.EnrichProfile(ctx, text, profile)
}

func (p *Pipeline) EnrichJDSkills(ctx context.Context, text string, skills []string) []string {
	return p.enricher.EnrichJDSkills(ctx, text, skills)
}

func (p *Pipeline) GenerateRecommendation(ctx context.Context, jdSkills, resumeSkills, missing []string) string {
	return p.enricher.GenerateRecommendation(ctx, jdSkills, resumeSkills, missing)
}

// Run analyzes the resume and the job description concurrently, then matches
// them. The first analysis error cancels the other.
func (p *Pipeline) Run(ctx context.Context, req MatchRequest) (*MatchOutcome, error) {
	var (
		resume *ResumeAnalysis
		job    *JobAnalysis
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resume, err = p.AnalyzeResume(gctx, req.Resume, req.Enrich)
		return err
	})
	g.Go(func() error {
		var err error
		job, err = p.AnalyzeJob(gctx, req.Job, req.Enrich)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := p.Match(ctx, resume.Skills, job.Skills, req.Options)

	outcome := &MatchOutcome{Resume: resume, Job: job, Report: report}
	if req.Recommend {
		outcome.Recommendation = RecommendationUnavailable
		if p.cfg.EnrichEnabled {
			outcome.Recommendation = p.GenerateRecommendation(ctx, job.Skills.Sorted(), resume.Skills.Sorted(), report.Missing)
		}
	}

	p.logger.Info("match completed",
		zap.String(logger.FieldMatchMode, string(report.Mode)),
		zap.Float64("match_percentage", report.MatchPercentage),
		zap.Bool("degraded", report.Degraded))

	return outcome, nil
}
