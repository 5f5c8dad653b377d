package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Record the current configuration baseline of every device",
		Long:  "Checks which HA ports, HA groups, and data interfaces are already configured so the apply stages can skip them.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.Discover(ctx)
		}),
	}
}
