package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a pipeline job for the daemon",
		Long: "Queue a job in the shared job store. The reelsmithd daemon picks it up;\n" +
			"use 'reelsmith jobs' to follow it.",
	}
	for _, spec := range pipelineCommandSpecs {
		submitCmd.AddCommand(newSubmitKindCommand(ctx, spec))
	}
	return submitCmd
}

func newSubmitKindCommand(ctx *commandContext, spec pipelineCommandSpec) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: "Queue: " + spec.short,
		Args:  cobra.NoArgs,
	}
	flags := bindRequestFlags(cmd, spec.kind)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the job until it finishes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval for --watch")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		req, err := flags.build(cmd, cfg)
		if err != nil {
			return err
		}
		return ctx.withStore(func(store *queue.Store) error {
			job, err := store.Create(cmd.Context(), string(spec.kind), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s job %s\n", spec.kind, job.ID)
			if !watch {
				return nil
			}
			final, err := watchJob(cmd.Context(), store, job.ID, cmd.OutOrStdout(), interval)
			if err != nil {
				return err
			}
			return jobOutcomeError(final)
		})
	}
	return cmd
}
