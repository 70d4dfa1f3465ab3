package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/skill-matcher/internal/bootstrap"
	"alfredoptarigan/skill-matcher/internal/config"
	"alfredoptarigan/skill-matcher/internal/logger"
	"alfredoptarigan/skill-matcher/internal/services"
)

const app = "skillmatch"

type rootOptions struct {
	debug    bool
	json     bool
	strategy string
	vocab    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          app,
		Short:        "skillmatch extracts skills from resumes and job descriptions and compares them",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	cmd.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")
	cmd.PersistentFlags().StringVar(&opts.strategy, "strategy", "", "skill strategy: vocabulary, ner or embedding (default from SKILL_STRATEGY)")
	cmd.PersistentFlags().StringVar(&opts.vocab, "vocabulary", "", "path to a skill vocabulary file")

	cmd.AddCommand(newExtractCmd(opts), newMatchCmd(opts))

	return cmd
}

// setup loads configuration, applies flag overrides and builds the pipeline.
// Logs go to stderr so stdout stays valid JSON.
func (o *rootOptions) setup(ctx context.Context) (*bootstrap.Components, *zap.Logger, error) {
	cfg := config.Load()
	if o.strategy != "" {
		cfg.Pipeline.SkillStrategy = o.strategy
	}
	if o.vocab != "" {
		cfg.Pipeline.VocabularyPath = o.vocab
	}

	log, err := logger.New(o.json, o.debug, "stderr")
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	return components, log, nil
}

func readDocument(path string) (services.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return services.NewDocument(filepath.Base(path), data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
