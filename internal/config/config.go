package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/netauto/panfw/internal/env"
)

// Settings holds everything the pipeline needs beyond device credentials:
// timeouts, poll cadences, and the addressing parameters rendered into the
// XML payload templates.
type Settings struct {
	// DevicesFile is a JSON file with the device descriptor list
	// ({host, username, password} objects), normally provisioned by the
	// CI job.
	DevicesFile string `mapstructure:"devices-file"`
	// StateDB is the SQLite file carrying inter-stage state.
	StateDB string `mapstructure:"state-db"`

	CommitTimeout    time.Duration `mapstructure:"commit-timeout"`
	PollInterval     time.Duration `mapstructure:"poll-interval"`
	SyncMaxChecks    int           `mapstructure:"sync-max-checks"`
	ActiveAttempts   int           `mapstructure:"active-attempts"`
	ActiveRetryDelay time.Duration `mapstructure:"active-retry-delay"`
	// StrictActive fails identify-active outright instead of falling back
	// to the first device when no node reports active. Fresh deployments
	// keep this off: a new pair may not have elected a node yet.
	StrictActive bool `mapstructure:"strict-active"`

	HA      HASettings      `mapstructure:"ha"`
	Network NetworkSettings `mapstructure:"network"`
}

// HASettings parameterizes the HA interface and group payloads. Slice
// fields are indexed by device position in the devices file: element 0
// configures the first device, element 1 its peer.
type HASettings struct {
	GroupID    int      `mapstructure:"group-id"`
	Ports      []string `mapstructure:"ports"`
	HA1IPs     []string `mapstructure:"ha1-ips"`
	HA2IPs     []string `mapstructure:"ha2-ips"`
	Netmask    string   `mapstructure:"netmask"`
	Priorities []int    `mapstructure:"priorities"`
}

// ValidateFor checks that the HA addressing covers the given number of
// devices before any config is staged.
func (h HASettings) ValidateFor(devices int) error {
	if len(h.Ports) < 2 {
		return errors.Errorf("ha.ports needs the HA1 and HA2 ports, got %d", len(h.Ports))
	}
	if len(h.HA1IPs) < devices || len(h.HA2IPs) < devices {
		return errors.Errorf("ha.ha1-ips/ha.ha2-ips must cover all %d devices", devices)
	}
	if len(h.Priorities) < devices {
		return errors.Errorf("ha.priorities must cover all %d devices", devices)
	}
	return nil
}

// NetworkSettings parameterizes the baseline network policy payloads:
// data interfaces, zones, routing, security and NAT.
type NetworkSettings struct {
	UntrustInterface string `mapstructure:"untrust-interface"`
	UntrustIP        string `mapstructure:"untrust-ip"`
	UntrustZone      string `mapstructure:"untrust-zone"`
	TrustInterface   string `mapstructure:"trust-interface"`
	TrustIP          string `mapstructure:"trust-ip"`
	TrustZone        string `mapstructure:"trust-zone"`
	TrustSubnet      string `mapstructure:"trust-subnet"`
	VirtualRouter    string `mapstructure:"virtual-router"`
	DefaultGateway   string `mapstructure:"default-gateway"`
}

// Load reads settings from defaults, an optional config file, and the
// PANFW_* environment (a .env file is honored first).
func Load() (*Settings, error) {
	env.Ensure()

	v := viper.New()
	v.SetDefault("devices-file", "devices.json")
	v.SetDefault("state-db", "")
	v.SetDefault("commit-timeout", 10*time.Minute)
	v.SetDefault("poll-interval", 15*time.Second)
	v.SetDefault("sync-max-checks", 8)
	v.SetDefault("active-attempts", 3)
	v.SetDefault("active-retry-delay", 10*time.Second)
	v.SetDefault("strict-active", false)

	v.SetDefault("ha.group-id", 1)
	v.SetDefault("ha.ports", []string{"ethernet1/4", "ethernet1/5"})
	v.SetDefault("ha.ha1-ips", []string{"10.255.0.1", "10.255.0.2"})
	v.SetDefault("ha.ha2-ips", []string{"10.255.1.1", "10.255.1.2"})
	v.SetDefault("ha.netmask", "255.255.255.0")
	v.SetDefault("ha.priorities", []int{100, 200})

	v.SetDefault("network.untrust-interface", "ethernet1/1")
	v.SetDefault("network.untrust-zone", "untrust")
	v.SetDefault("network.trust-interface", "ethernet1/2")
	v.SetDefault("network.trust-zone", "trust")
	v.SetDefault("network.virtual-router", "default")

	v.SetEnvPrefix("PANFW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("panfw")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &settings, nil
}
