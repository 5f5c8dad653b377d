package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Commit on the active node and wait for HA config sync",
		Long:  "Commits the staged network configuration on the active firewall, then triggers a running-config sync to the peer if needed and monitors it to completion.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.CommitAndSync(ctx)
		}),
	}
}
