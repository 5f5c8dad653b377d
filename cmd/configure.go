package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Apply the baseline network policy to the active node",
		Long:  "Stages data interfaces, zones, virtual router, default route, security policy, and source NAT on the active firewall, recording a per-concern outcome.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.ConfigureNetwork(ctx)
		}),
	}
}
