package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/netauto/panfw/internal/state"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop all persisted pipeline state",
		Long:  "Clears the stage state in the SQLite store so the next run starts from scratch. Device configuration is not touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			path, err := state.ResolvePath(settings.StateDB)
			if err != nil {
				return err
			}
			store, err := state.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Reset(); err != nil {
				return err
			}
			log.Info().Str("state_db", path).Msg("pipeline state cleared")
			return nil
		},
	}
}
