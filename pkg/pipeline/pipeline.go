// Package pipeline implements the bring-up stages for a two-node firewall
// HA pair. Each stage reads the state persisted by an earlier stage, talks
// to the devices over their XML API, and persists its own state, so stages
// can be driven independently from CI.
package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/netauto/panfw/internal/config"
	"github.com/netauto/panfw/internal/state"
	"github.com/netauto/panfw/pkg/panos"
)

// deviceClient is the per-device API surface the stages use; *panos.Client
// implements it. Tests substitute fakes.
type deviceClient interface {
	Host() string
	Session() panos.DeviceSession
	GenerateAPIKey(ctx context.Context) (string, error)
	SetConfig(ctx context.Context, xpath, element string, overwrite bool) error
	GetConfig(ctx context.Context, xpath string) (string, error)
	ConfigNodeExists(ctx context.Context, xpath, element string) (bool, error)
	Commit(ctx context.Context, description string) (string, error)
	JobStatus(ctx context.Context, jobID string) (panos.JobStatus, error)
	HAInfo(ctx context.Context) (panos.HAInfo, error)
	SyncToPeer(ctx context.Context) error
}

// Pipeline wires the stages to the state store and the device clients.
type Pipeline struct {
	store     *state.Store
	settings  *config.Settings
	newClient func(panos.DeviceSession) deviceClient
}

// New builds a pipeline over the given store and settings.
func New(store *state.Store, settings *config.Settings) *Pipeline {
	return &Pipeline{
		store:    store,
		settings: settings,
		newClient: func(session panos.DeviceSession) deviceClient {
			return panos.NewClient(session)
		},
	}
}

// LoadDeviceFile reads the JSON device descriptor list the CI job
// provisions: an array of {host, username, password} objects.
func LoadDeviceFile(path string) ([]panos.DeviceSession, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read device file %s", path)
	}
	var devices []panos.DeviceSession
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, errors.Wrapf(err, "parse device file %s", path)
	}
	if len(devices) == 0 {
		return nil, errors.Errorf("device file %s lists no devices", path)
	}
	for i, device := range devices {
		if err := device.Validate(); err != nil {
			return nil, errors.Wrapf(err, "device entry %d", i)
		}
	}
	return devices, nil
}

// clients builds one API client per session, preserving input order.
func (p *Pipeline) clients(sessions []panos.DeviceSession) []deviceClient {
	clients := make([]deviceClient, 0, len(sessions))
	for _, session := range sessions {
		clients = append(clients, p.newClient(session))
	}
	return clients
}

// sessions loads the authenticated session list, preferring the richer
// discovery state and falling back to the keygen state so the HA stages
// also work when discovery was skipped.
func (p *Pipeline) sessions() ([]panos.DeviceSession, error) {
	var sessions struct {
		Devices []panos.DeviceSession `json:"devices"`
	}
	if _, err := p.store.LoadFirst(&sessions, StageDiscovery, StageAPIKeys); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, errors.Wrap(err, "no session state; run the keygen stage first")
		}
		return nil, err
	}
	return sessions.Devices, nil
}

func (p *Pipeline) committer(clients []deviceClient, policy panos.CommitPolicy) *panos.Committer {
	commitClients := make([]panos.CommitClient, 0, len(clients))
	for _, client := range clients {
		commitClients = append(commitClients, client)
	}
	return panos.NewCommitter(commitClients, panos.CommitterOptions{
		Policy:       policy,
		Timeout:      p.settings.CommitTimeout,
		PollInterval: p.settings.PollInterval,
	})
}
