package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate and persist API keys for all devices",
		Long:  "Reads the device descriptor file, requests an API key per device, and persists the authenticated sessions for the later stages.",
		RunE: withPipeline(func(ctx context.Context, p *pipeline.Pipeline) error {
			return p.GenerateKeys(ctx)
		}),
	}
}
