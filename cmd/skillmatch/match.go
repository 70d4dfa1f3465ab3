package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"alfredoptarigan/skill-matcher/internal/services"
)

type matchOutput struct {
	Resume         services.CandidateFields `json:"resume"`
	ResumeSkills   []string                 `json:"resume_skills"`
	JDSkills       []string                 `json:"jd_skills"`
	Report         services.MatchReport     `json:"report"`
	Recommendation string                   `json:"recommendation,omitempty"`
}

func newMatchCmd(root *rootOptions) *cobra.Command {
	var (
		mode      string
		threshold float64
		enrich    bool
		recommend bool
	)

	cmd := &cobra.Command{
		Use:   "match <resume> <job-description>",
		Short: "Match a resume against a job description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := services.MatchOptions{Threshold: threshold}
			if mode != "" {
				m, err := services.ParseMatchMode(mode)
				if err != nil {
					return err
				}
				opts.Mode = m
			}
			if cmd.Flags().Changed("threshold") && (math.IsNaN(threshold) || threshold <= 0 || threshold > 1) {
				return fmt.Errorf("threshold must be in (0, 1], got %v", threshold)
			}

			components, log, err := root.setup(ctx)
			if err != nil {
				return err
			}
			defer components.Close()
			defer func() { _ = log.Sync() }()

			resume, err := readDocument(args[0])
			if err != nil {
				return err
			}
			jd, err := readDocument(args[1])
			if err != nil {
				return err
			}

			outcome, err := components.Pipeline.Run(ctx, services.MatchRequest{
				Resume:    resume,
				Job:       jd,
				Options:   opts,
				Enrich:    enrich,
				Recommend: recommend,
			})
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), matchOutput{
				Resume:         outcome.Resume.Fields,
				ResumeSkills:   outcome.Resume.Skills.Sorted(),
				JDSkills:       outcome.Job.Skills.Sorted(),
				Report:         outcome.Report,
				Recommendation: outcome.Recommendation,
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "match mode: exact or semantic (default from MATCH_MODE)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "semantic similarity threshold in (0,1] (default from SIMILARITY_THRESHOLD)")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "fill gaps with the language model")
	cmd.Flags().BoolVar(&recommend, "recommend", false, "ask the language model for advice on missing skills")

	return cmd
}
