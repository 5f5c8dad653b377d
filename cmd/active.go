package main

import (
	"github.com/spf13/cobra"

	"github.com/netauto/panfw/pkg/pipeline"
)

func newIdentifyActiveCmd() *cobra.Command {
	var flagStrict bool

	cmd := &cobra.Command{
		Use:   "identify-active",
		Short: "Resolve which node holds the active HA role",
		Long:  "Polls the HA state of every device until one reports active and persists the winner; later stages configure that node only. Without --strict-active an unresolved election falls back to the first device.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if flagStrict {
				settings.StrictActive = true
			}
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer store.Close()
			return pipeline.New(store, settings).IdentifyActive(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&flagStrict, "strict-active", false, "Fail instead of falling back to the first device when no node reports active")

	return cmd
}
