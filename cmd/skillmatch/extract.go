package main

import (
	"github.com/spf13/cobra"

	"alfredoptarigan/skill-matcher/internal/services"
)

type extractOutput struct {
	File   string                    `json:"file"`
	Kind   services.DocumentKind     `json:"kind"`
	Fields *services.CandidateFields `json:"fields,omitempty"`
	Skills []string                  `json:"skills"`
	Count  int                       `json:"skill_count"`
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	var (
		job    bool
		enrich bool
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract contact fields and skills from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			components, log, err := root.setup(ctx)
			if err != nil {
				return err
			}
			defer components.Close()
			defer func() { _ = log.Sync() }()

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			out := extractOutput{File: doc.Filename, Kind: doc.Kind}
			if job {
				analysis, err := components.Pipeline.AnalyzeJob(ctx, doc, enrich)
				if err != nil {
					return err
				}
				out.Skills = analysis.Skills.SkillList()
				out.Count = analysis.Skills.Len()
			} else {
				analysis, err := components.Pipeline.AnalyzeResume(ctx, doc, enrich)
				if err != nil {
					return err
				}
				out.Fields = &analysis.Fields
				out.Skills = analysis.Skills.SkillList()
				out.Count = analysis.Skills.Len()
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&job, "job", false, "treat the file as a job description (skills only)")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "fill gaps with the language model")

	return cmd
}
