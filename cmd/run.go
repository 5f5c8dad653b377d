package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full bring-up pipeline end to end",
		Long:  "Runs every stage in order: keygen, discover, ha-interfaces, ha-config, identify-active, configure, commit. Stages that find their work already done are skipped, so re-running after a failure resumes cleanly.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return p.Run(sigCtx)
		}),
	}
}
