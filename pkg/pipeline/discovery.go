package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/netauto/panfw/internal/state"
)

// Discover records the current configuration baseline of every device so
// later stages can skip already-applied concerns. Individual check
// failures are recorded as "not configured" rather than failing the stage:
// the worst case is re-applying config that is already there, which the
// set semantics of the API make harmless.
func (p *Pipeline) Discover(ctx context.Context) error {
	var keys KeysState
	if err := p.store.Load(StageAPIKeys, &keys); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errors.Wrap(err, "run the keygen stage first")
		}
		return err
	}

	discovery := DiscoveryState{
		Devices: keys.Devices,
		ByHost:  map[string]DeviceFacts{},
	}
	for _, client := range p.clients(keys.Devices) {
		facts := DeviceFacts{HAPorts: map[string]bool{}}
		for _, port := range p.settings.HA.Ports {
			present, err := client.ConfigNodeExists(ctx, xpathEthernetPort(port), "ha")
			if err != nil {
				log.Warn().Err(err).Str("host", client.Host()).Str("port", port).Msg("HA port check failed, assuming unconfigured")
				present = false
			}
			facts.HAPorts[port] = present
		}

		haConfigured, err := client.ConfigNodeExists(ctx, xpathHA, "group")
		if err != nil {
			log.Warn().Err(err).Str("host", client.Host()).Msg("HA config check failed, assuming unconfigured")
			haConfigured = false
		}
		facts.HAConfigured = haConfigured

		netConfigured, err := client.ConfigNodeExists(ctx, xpathEthernet, "layer3")
		if err != nil {
			log.Warn().Err(err).Str("host", client.Host()).Msg("network config check failed, assuming unconfigured")
			netConfigured = false
		}
		facts.NetworkConfigured = netConfigured

		log.Info().
			Str("host", client.Host()).
			Bool("ha_configured", facts.HAConfigured).
			Bool("network_configured", facts.NetworkConfigured).
			Msg("device baseline discovered")
		discovery.ByHost[client.Host()] = facts
	}

	return p.store.Save(StageDiscovery, discovery)
}
