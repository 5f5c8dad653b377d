package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newHAInterfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ha-interfaces",
		Short: "Mark the dedicated HA ports and commit on all devices",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.ConfigureHAInterfaces(ctx)
		}),
	}
}

func newHAConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ha-config",
		Short: "Enable HA and stage the group and link configuration",
		Long:  "Enables high availability on both nodes, points each at its peer's HA1 address with its own election priority, and commits on all devices.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.ConfigureHA(ctx)
		}),
	}
}
