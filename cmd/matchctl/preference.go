package main

import (
	"context"

	"github.com/spf13/cobra"

	"automatch-workers/internal/pipeline"
)

func newPreferenceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preference",
		Short: "Read or change a candidate's auto-apply preference",
	}

	get := &cobra.Command{
		Use:   "get CANDIDATE_ID",
		Short: "Print the effective preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
				pref, err := p.Limiter.Preference(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pref)
			})
		},
	}

	var (
		enabled   bool
		minScore  int
		maxPerDay int
	)
	set := &cobra.Command{
		Use:   "set CANDIDATE_ID",
		Short: "Update the preference; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
				pref, err := p.Limiter.Preference(ctx, args[0])
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("enabled") {
					pref.Enabled = enabled
				}
				if flags.Changed("min-score") {
					pref.MinScoreThreshold = minScore
				}
				if flags.Changed("max-per-day") {
					pref.MaxApplicationsPerDay = maxPerDay
				}

				saved, err := p.Limiter.SetPreference(ctx, pref)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
	set.Flags().BoolVar(&enabled, "enabled", true, "enable auto-apply")
	set.Flags().IntVar(&minScore, "min-score", 0, "minimum match score (0-100)")
	set.Flags().IntVar(&maxPerDay, "max-per-day", 0, "maximum auto-applications per UTC day (1-100)")

	cmd.AddCommand(get, set)
	return cmd
}
