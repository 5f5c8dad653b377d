package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netauto/panfw/internal/config"
	"github.com/netauto/panfw/internal/state"
	"github.com/netauto/panfw/pkg/pipeline"
)

// withPipeline builds the RunE body shared by every stage command: load
// settings, open the state store, wire the pipeline, run the stage.
func withPipeline(run func(ctx context.Context, p *pipeline.Pipeline) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		store, err := openStore(settings)
		if err != nil {
			return err
		}
		defer store.Close()
		return run(cmd.Context(), pipeline.New(store, settings))
	}
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(rootDevicesFile); v != "" {
		settings.DevicesFile = v
	}
	if v := strings.TrimSpace(rootStateDB); v != "" {
		settings.StateDB = v
	}
	return settings, nil
}

func openStore(settings *config.Settings) (*state.Store, error) {
	path, err := state.ResolvePath(settings.StateDB)
	if err != nil {
		return nil, err
	}
	return state.Open(path)
}
