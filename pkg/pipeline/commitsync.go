package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/netauto/panfw/internal/state"
	"github.com/netauto/panfw/pkg/panos"
)

// CommitAndSync commits the staged configuration on the active node and
// reconciles the HA peer. When the network stage recorded no successful
// change, both steps are skipped.
//
// The commit runs under the lenient policy: the configuration is already
// staged and durable, so a rejected or timed-out commit with nothing
// committed fails the stage, while a partially-monitored outcome is
// reported and the sync still runs. A sync timeout is recorded as a
// warning, not a failure: the sync keeps converging on the devices and
// there is no way to force it along.
func (p *Pipeline) CommitAndSync(ctx context.Context) error {
	var network NetworkState
	if err := p.store.Load(StageNetwork, &network); err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			return err
		}
		// The network stage may legitimately be skipped; fall back to the
		// active-node state and commit whatever earlier stages staged.
		var active ActiveState
		if err := p.store.Load(StageActive, &active); err != nil {
			return errors.Wrap(err, "run the identify-active stage first")
		}
		log.Warn().Msg("no network stage state, using active firewall state")
		network = NetworkState{
			ActiveHost: active.ActiveHost,
			Devices:    active.Devices,
			Results:    map[string]string{},
		}
	}

	result := CommitState{ActiveHost: network.ActiveHost}
	if len(network.Results) > 0 && !anySuccess(network.Results) {
		log.Info().Msg("no configuration changes recorded, skipping commit and sync")
		result.Skipped = true
		return p.store.Save(StageCommit, result)
	}

	client := p.newClient(network.activeSession())
	ready, err := p.committer([]deviceClient{client}, panos.CommitLenient).CommitAll(ctx, "panfw: network configuration")
	result.Committed = ready
	if err != nil {
		if len(ready) == 0 {
			return errors.Wrap(err, "commit network configuration")
		}
		log.Warn().Err(err).Msg("commit partially incomplete, proceeding to HA sync")
	}

	syncer := panos.NewSyncer(client, panos.SyncerOptions{
		PollInterval: p.settings.PollInterval,
		MaxChecks:    p.settings.SyncMaxChecks,
	})
	if err := syncer.EnsureSynchronized(ctx); err != nil {
		var syncErr *panos.SyncError
		if errors.As(err, &syncErr) && syncErr.Kind == panos.SyncTimeout {
			// The sync has no cancel and may still complete; record and
			// leave escalation to the operator watching the log.
			log.Warn().Str("host", client.Host()).Msg("HA sync monitoring timed out, sync may still complete")
			result.SyncResult = "timeout"
			return p.store.Save(StageCommit, result)
		}
		return err
	}
	result.SyncResult = ResultSuccess
	log.Info().Str("host", client.Host()).Msg("commit and HA sync completed")
	return p.store.Save(StageCommit, result)
}

func anySuccess(results map[string]string) bool {
	for _, outcome := range results {
		if outcome == ResultSuccess {
			return true
		}
	}
	return false
}

// activeSession mirrors ActiveState.activeSession for the network stage's
// snapshot of the device list.
func (s NetworkState) activeSession() panos.DeviceSession {
	for _, device := range s.Devices {
		if device.Host == s.ActiveHost {
			return device
		}
	}
	return s.Devices[0]
}
