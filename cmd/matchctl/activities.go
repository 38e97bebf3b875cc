package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"automatch-workers/pkg/registry"
)

func newActivitiesCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Print the activity registry for BPMN authors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			if err := reg.Validate(); err != nil {
				return err
			}
			if out == "" {
				return printJSON(cmd.OutOrStdout(), reg)
			}
			if err := reg.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d activities to %s\n", len(reg.Activities), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the registry to a file instead of stdout")
	return cmd
}
