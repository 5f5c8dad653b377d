package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/netauto/panfw/pkg/panos"
	"github.com/netauto/panfw/pkg/pipeline/payload"
)

// ConfigureHAInterfaces marks the dedicated HA ports on every device with
// the <ha/> interface type and commits. Ports already marked (per
// discovery) are skipped. HA bring-up is strict: a commit failure here
// aborts, because nothing downstream is meaningful without the HA links.
func (p *Pipeline) ConfigureHAInterfaces(ctx context.Context) error {
	sessions, err := p.sessions()
	if err != nil {
		return err
	}
	facts := p.discoveredFacts()

	result := HAStageState{Devices: sessions, Applied: map[string]bool{}}
	clients := p.clients(sessions)
	changed := false
	for _, client := range clients {
		for _, port := range p.settings.HA.Ports {
			if facts[client.Host()].HAPorts[port] {
				log.Info().Str("host", client.Host()).Str("port", port).Msg("HA port already configured, skipping")
				continue
			}
			if err := client.SetConfig(ctx, xpathEthernetPort(port), "<ha/>", false); err != nil {
				return errors.Wrapf(err, "mark HA port %s on %s", port, client.Host())
			}
			log.Info().Str("host", client.Host()).Str("port", port).Msg("HA port staged")
			changed = true
		}
		result.Applied[client.Host()] = true
	}

	if !changed {
		log.Info().Msg("all HA ports already configured, skipping commit")
		result.CommitSkip = true
		return p.store.Save(StageHAInterfaces, result)
	}

	ready, err := p.committer(clients, panos.CommitStrict).CommitAll(ctx, "panfw: HA interfaces")
	result.Committed = ready
	if err != nil {
		return errors.Wrap(err, "commit HA interfaces")
	}
	return p.store.Save(StageHAInterfaces, result)
}

// ConfigureHA enables high availability on both nodes and stages the group
// and HA link configuration, then commits. Each node points at its peer's
// HA1 address and gets its own election priority, indexed by position in
// the device file.
func (p *Pipeline) ConfigureHA(ctx context.Context) error {
	sessions, err := p.sessions()
	if err != nil {
		return err
	}
	if err := p.settings.HA.ValidateFor(len(sessions)); err != nil {
		return err
	}
	facts := p.discoveredFacts()

	result := HAStageState{Devices: sessions, Applied: map[string]bool{}}
	clients := p.clients(sessions)
	changed := false
	for i, client := range clients {
		if facts[client.Host()].HAConfigured {
			log.Info().Str("host", client.Host()).Msg("HA already configured, skipping")
			continue
		}

		groupXML, err := payload.HAGroup(payload.HAGroupParams{
			GroupID: p.settings.HA.GroupID,
			// The peer is the other node of the pair, reached over HA1.
			PeerIP:   p.settings.HA.HA1IPs[(i+1)%len(sessions)],
			Priority: p.settings.HA.Priorities[i],
		})
		if err != nil {
			return err
		}
		interfaceXML, err := payload.HAInterfaces(payload.HAInterfaceParams{
			HA1Port: p.settings.HA.Ports[0],
			HA1IP:   p.settings.HA.HA1IPs[i],
			HA2Port: p.settings.HA.Ports[1],
			HA2IP:   p.settings.HA.HA2IPs[i],
			Netmask: p.settings.HA.Netmask,
		})
		if err != nil {
			return err
		}

		if err := client.SetConfig(ctx, xpathHA, "<enabled>yes</enabled>", false); err != nil {
			return errors.Wrapf(err, "enable HA on %s", client.Host())
		}
		if err := client.SetConfig(ctx, xpathHAGroup, groupXML, false); err != nil {
			return errors.Wrapf(err, "stage HA group on %s", client.Host())
		}
		if err := client.SetConfig(ctx, xpathHAInterface, interfaceXML, false); err != nil {
			return errors.Wrapf(err, "stage HA interfaces on %s", client.Host())
		}
		log.Info().Str("host", client.Host()).Int("priority", p.settings.HA.Priorities[i]).Msg("HA configuration staged")
		result.Applied[client.Host()] = true
		changed = true
	}

	if !changed {
		log.Info().Msg("HA already configured on all devices, skipping commit")
		result.CommitSkip = true
		return p.store.Save(StageHAConfig, result)
	}

	ready, err := p.committer(clients, panos.CommitStrict).CommitAll(ctx, "panfw: HA configuration")
	result.Committed = ready
	if err != nil {
		return errors.Wrap(err, "commit HA configuration")
	}
	return p.store.Save(StageHAConfig, result)
}

// discoveredFacts returns the discovery baseline, or an empty map when the
// discovery stage was skipped (everything is then treated as unconfigured).
func (p *Pipeline) discoveredFacts() map[string]DeviceFacts {
	var discovery DiscoveryState
	if err := p.store.Load(StageDiscovery, &discovery); err != nil {
		log.Debug().Msg("no discovery state, applying all config")
		return map[string]DeviceFacts{}
	}
	return discovery.ByHost
}
