package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"automatch-workers/internal/pipeline"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
				if err := p.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}
