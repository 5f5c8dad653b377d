package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/netauto/panfw/pkg/panos"
)

// IdentifyActive resolves which node of the pair currently holds the
// active HA role and persists it; downstream configuration targets that
// node only. With strict-active off (the fresh-deployment default) an
// unresolved election falls back to the first device in the device file.
func (p *Pipeline) IdentifyActive(ctx context.Context) error {
	sessions, err := p.sessions()
	if err != nil {
		return err
	}

	clients := p.clients(sessions)
	stateClients := make([]panos.HAStateClient, 0, len(clients))
	for _, client := range clients {
		stateClients = append(stateClients, client)
	}

	fallback := panos.FallbackFirstDevice
	if p.settings.StrictActive {
		fallback = panos.FallbackNone
	}
	active, usedFallback, err := panos.FindActive(ctx, stateClients, panos.FindActiveOptions{
		Attempts:   p.settings.ActiveAttempts,
		RetryDelay: p.settings.ActiveRetryDelay,
		Fallback:   fallback,
	})
	if err != nil {
		return err
	}

	result := ActiveState{Devices: sessions, ActiveHost: active.Host(), Fallback: usedFallback}
	log.Info().Str("host", result.ActiveHost).Bool("fallback", result.Fallback).Msg("active firewall recorded")
	return p.store.Save(StageActive, result)
}
