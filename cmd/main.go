package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "panfw",
	Short: "Bring-up automation for a two-node firewall HA pair",
	Long: `panfw drives the staged bring-up of a PAN-OS firewall HA pair over the
XML API: API key generation, baseline discovery, HA interface and group
configuration, active-node resolution, network policy configuration, and
the final commit with HA config sync. Each stage persists its result so
the pipeline can be resumed or re-run per stage from CI.`,
}

var (
	rootDevicesFile string
	rootStateDB     string
)

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.PersistentFlags().StringVar(&rootDevicesFile, "devices-file", "", "Device descriptor JSON overriding $PANFW_DEVICES_FILE")
	rootCmd.PersistentFlags().StringVar(&rootStateDB, "state-db", "", "SQLite state file overriding $PANFW_STATE_DB")
	rootCmd.AddCommand(
		newKeygenCmd(),
		newDiscoverCmd(),
		newHAInterfacesCmd(),
		newHAConfigCmd(),
		newIdentifyActiveCmd(),
		newConfigureCmd(),
		newCommitCmd(),
		newRunCmd(),
		newResetCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("panfw command failed")
	}
}
