package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"automatch-workers/internal/common/config"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/pipeline"
)

const app = "matchctl"

// opener builds a pipeline for one command and returns its cleanup.
type opener func(ctx context.Context, cfg *config.Config, log logger.Logger) (*pipeline.Pipeline, func(), error)

func defaultOpener(ctx context.Context, cfg *config.Config, log logger.Logger) (*pipeline.Pipeline, func(), error) {
	conns, err := pipeline.Connect(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.New(ctx, cfg, conns, log)
	if err != nil {
		_ = conns.Close()
		return nil, nil, err
	}
	return p, func() { _ = conns.Close() }, nil
}

type cli struct {
	open    opener
	cfgFile string
	debug   bool
	json    bool
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           app,
		Short:         "matchctl operates the candidate/job matching pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVarP(&c.json, "json", "j", false, "json format for logging")

	root.AddCommand(
		newRunCmd(c),
		newPreferenceCmd(c),
		newMigrateCmd(c),
		newSearchCmd(c),
		newActivitiesCmd(),
	)
	return root
}

func (c *cli) logger() logger.Logger {
	level, format := "warn", "console"
	if c.debug {
		level = "debug"
	}
	if c.json {
		format = "json"
	}
	return logger.NewStructured(level, format)
}

func (c *cli) config() (*config.Config, error) {
	if c.cfgFile != "" {
		return config.LoadFromFile(c.cfgFile)
	}
	return config.Load()
}

// withPipeline loads configuration, opens the pipeline and runs fn with it.
func (c *cli) withPipeline(cmd *cobra.Command, fn func(ctx context.Context, p *pipeline.Pipeline) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, cleanup, err := c.open(ctx, cfg, c.logger())
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, p)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
