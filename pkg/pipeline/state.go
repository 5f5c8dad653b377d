package pipeline

import "github.com/netauto/panfw/pkg/panos"

// Stage keys in the state store. Later stages fall back to earlier ones
// when an optional stage was skipped.
const (
	StageAPIKeys      = "apikeys"
	StageDiscovery    = "discovery"
	StageHAInterfaces = "ha_interfaces"
	StageHAConfig     = "ha_config"
	StageActive       = "active"
	StageNetwork      = "network_config"
	StageCommit       = "commit_sync"
)

// Per-concern result values recorded by the configuration stages.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// KeysState is persisted by the keygen stage: the device sessions with
// their API keys filled in.
type KeysState struct {
	Devices []panos.DeviceSession `json:"devices"`
}

// DeviceFacts is the discovered baseline for one device, used by later
// stages to decide skip-vs-apply.
type DeviceFacts struct {
	// HAPorts maps each designated HA port to whether it already carries
	// the <ha/> marker.
	HAPorts map[string]bool `json:"ha_ports"`
	// HAConfigured reports whether the high-availability group subtree
	// exists.
	HAConfigured bool `json:"ha_configured"`
	// NetworkConfigured reports whether the untrust data interface is
	// already present.
	NetworkConfigured bool `json:"network_configured"`
}

// DiscoveryState is persisted by the discovery stage.
type DiscoveryState struct {
	Devices []panos.DeviceSession  `json:"devices"`
	ByHost  map[string]DeviceFacts `json:"by_host"`
}

// HAStageState is persisted by the two HA configuration stages.
type HAStageState struct {
	Devices    []panos.DeviceSession `json:"devices"`
	Applied    map[string]bool       `json:"applied"`
	Committed  []string              `json:"committed"`
	CommitSkip bool                  `json:"commit_skipped"`
}

// ActiveState is persisted by the identify-active stage.
type ActiveState struct {
	Devices    []panos.DeviceSession `json:"devices"`
	ActiveHost string                `json:"active_host"`
	// Fallback records that no node reported active and the designated
	// default was used instead.
	Fallback bool `json:"fallback"`
}

// NetworkState is persisted by the network configuration stage: the
// per-concern outcome on the active node.
type NetworkState struct {
	ActiveHost string                `json:"active_host"`
	Devices    []panos.DeviceSession `json:"devices"`
	Results    map[string]string     `json:"results"`
}

// CommitState is persisted by the final commit-and-sync stage.
type CommitState struct {
	ActiveHost string   `json:"active_host"`
	Committed  []string `json:"committed"`
	Skipped    bool     `json:"skipped"`
	SyncResult string   `json:"sync_result"`
}

// activeSession returns the session matching the recorded active host,
// falling back to the first device (the recorded host always comes from
// the same list, so the fallback only guards corrupted state).
func (s ActiveState) activeSession() panos.DeviceSession {
	for _, device := range s.Devices {
		if device.Host == s.ActiveHost {
			return device
		}
	}
	return s.Devices[0]
}
