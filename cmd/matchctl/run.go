package main

import (
	"context"

	"github.com/spf13/cobra"

	"automatch-workers/internal/common/camunda"
	"automatch-workers/internal/matching/orchestrator"
	"automatch-workers/internal/models"
	"automatch-workers/internal/pipeline"
)

const runFinishedMessage = "matching-run-finished"

type runFlags struct {
	candidateBatchSize int
	jobBatchSize       int
	candidatesPerJob   int
	workers            int
	noRetry            bool
	publish            bool
}

func newRunCmd(c *cli) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one matching batch and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline) error {
				opts := p.RunOptions(models.TriggerManual)
				if f.candidateBatchSize > 0 {
					opts.CandidateBatchSize = f.candidateBatchSize
				}
				if f.jobBatchSize > 0 {
					opts.JobBatchSize = f.jobBatchSize
				}
				if f.candidatesPerJob > 0 {
					opts.CandidatesPerJob = f.candidatesPerJob
				}
				if f.workers > 0 {
					opts.Workers = f.workers
				}

				var (
					run *models.RunRecord
					err error
				)
				if f.noRetry {
					run, err = p.Orchestrator.Run(ctx, opts)
				} else {
					run, err = p.Orchestrator.RunWithRetry(ctx, opts)
				}
				if run != nil {
					if printErr := printJSON(cmd.OutOrStdout(), orchestrator.Summary(run)); printErr != nil {
						return printErr
					}
				}
				if err != nil {
					return err
				}

				if f.publish {
					return publishRunFinished(ctx, p, run)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&f.candidateBatchSize, "candidate-batch-size", 0, "max candidates embedded per run")
	cmd.Flags().IntVar(&f.jobBatchSize, "job-batch-size", 0, "max open jobs processed per run")
	cmd.Flags().IntVar(&f.candidatesPerJob, "candidates-per-job", 0, "max unevaluated candidates per job")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent pair evaluations")
	cmd.Flags().BoolVar(&f.noRetry, "no-retry", false, "do not retry a failed run")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "publish "+runFinishedMessage+" to Zeebe when the run completes")
	return cmd
}

func publishRunFinished(ctx context.Context, p *pipeline.Pipeline, run *models.RunRecord) error {
	zeebe, err := camunda.NewClient(p.Config.Camunda.BrokerAddress)
	if err != nil {
		return err
	}
	defer zeebe.Close()

	summary := run.Summary()
	return zeebe.PublishMessage(ctx, runFinishedMessage, run.ID, map[string]interface{}{
		"runId":                 run.ID,
		"matchesFound":          summary.MatchesFound,
		"applicationsSubmitted": summary.ApplicationsSubmitted,
		"jobsProcessed":         summary.JobsProcessed,
		"errors":                summary.Errors,
	})
}
