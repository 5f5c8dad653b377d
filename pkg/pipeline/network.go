package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/netauto/panfw/internal/state"
	"github.com/netauto/panfw/pkg/pipeline/payload"
)

// The network concerns applied by ConfigureNetwork, in application order.
const (
	ConcernInterfaces     = "interfaces"
	ConcernZones          = "zones"
	ConcernVirtualRouter  = "virtual_router"
	ConcernDefaultRoute   = "default_route"
	ConcernSecurityPolicy = "security_policy"
	ConcernSourceNAT      = "source_nat"
)

// ConfigureNetwork stages the baseline network policy on the active node:
// data interfaces, zones, virtual router, default route, security policy
// and source NAT. A failing concern is recorded and logged but does not
// abort the stage; the per-concern results drive the commit stage's
// skip decision and the operator's follow-up. HA sync replicates whatever
// succeeds to the peer after commit.
func (p *Pipeline) ConfigureNetwork(ctx context.Context) error {
	var active ActiveState
	if err := p.store.Load(StageActive, &active); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return errors.Wrap(err, "run the identify-active stage first")
		}
		return err
	}

	client := p.newClient(active.activeSession())
	net := p.settings.Network
	params := payload.NetworkParams{
		UntrustInterface: net.UntrustInterface,
		UntrustIP:        net.UntrustIP,
		UntrustZone:      net.UntrustZone,
		TrustInterface:   net.TrustInterface,
		TrustIP:          net.TrustIP,
		TrustZone:        net.TrustZone,
		TrustSubnet:      net.TrustSubnet,
		DefaultGateway:   net.DefaultGateway,
	}

	concerns := []struct {
		name   string
		xpath  string
		render func(payload.NetworkParams) (string, error)
	}{
		{ConcernInterfaces, xpathEthernet, payload.DataInterfaces},
		{ConcernZones, xpathZones, payload.Zones},
		{ConcernVirtualRouter, xpathVirtualRouter(net.VirtualRouter), payload.VirtualRouter},
		{ConcernDefaultRoute, xpathDefaultRoute(net.VirtualRouter), payload.DefaultRoute},
		{ConcernSecurityPolicy, xpathSecurityRules, payload.SecurityPolicy},
		{ConcernSourceNAT, xpathNATRules, payload.SourceNAT},
	}

	result := NetworkState{
		ActiveHost: active.ActiveHost,
		Devices:    active.Devices,
		Results:    map[string]string{},
	}
	for _, concern := range concerns {
		element, err := concern.render(params)
		if err != nil {
			return err
		}
		if err := client.SetConfig(ctx, concern.xpath, element, false); err != nil {
			log.Error().Err(err).Str("host", client.Host()).Str("concern", concern.name).Msg("network concern failed, continuing")
			result.Results[concern.name] = ResultFailed
			continue
		}
		log.Info().Str("host", client.Host()).Str("concern", concern.name).Msg("network concern staged")
		result.Results[concern.name] = ResultSuccess
	}

	return p.store.Save(StageNetwork, result)
}
