package main

import (
	"context"

	"github.com/spf13/cobra"

	"automatch-workers/internal/models"
	"automatch-workers/internal/pipeline"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		limit         int
		minSimilarity float64
		skills        []string
		locations     []string
	)

	cmd := &cobra.Command{
		Use:   "search JOB_POSTING_ID",
		Short: "List candidates semantically similar to a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
				job, err := p.Index.Get(ctx, models.EntityJobPosting, args[0])
				if err != nil {
					return err
				}
				filters := &models.SearchFilters{RequiredSkills: skills, Locations: locations}
				matches, err := p.Index.Search(ctx, models.EntityCandidate, job.Vector, minSimilarity, limit, filters)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), matches)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0.5, "exclusive similarity floor")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "required skill (repeatable)")
	cmd.Flags().StringSliceVar(&locations, "location", nil, "accepted location (repeatable)")
	return cmd
}
