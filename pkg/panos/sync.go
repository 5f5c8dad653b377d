package panos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultSyncPollInterval is the pause between running-sync polls.
	DefaultSyncPollInterval = 15 * time.Second
	// DefaultSyncMaxChecks bounds the number of polls after a sync is
	// triggered or observed in progress (~2 minutes at the default
	// interval).
	DefaultSyncMaxChecks = 8
)

// SyncClient is the per-device surface the HA sync orchestrator needs.
// *Client implements it.
type SyncClient interface {
	Host() string
	HAInfo(ctx context.Context) (HAInfo, error)
	SyncToPeer(ctx context.Context) error
}

// SyncerOptions tunes the sync orchestrator. Zero values select defaults.
type SyncerOptions struct {
	PollInterval time.Duration
	MaxChecks    int
	MaxWait      time.Duration
	Clock        func() time.Time
	Sleep        func(time.Duration)
}

// Syncer drives a device's HA running-config synchronization to its peer.
// The sync itself is an asynchronous, best-effort background operation on
// the device with no cancel and no way to force faster convergence, so the
// orchestrator is purely observational once triggered.
type Syncer struct {
	client       SyncClient
	pollInterval time.Duration
	maxChecks    int
	maxWait      time.Duration
	clock        func() time.Time
	sleep        func(time.Duration)
}

// NewSyncer builds a sync orchestrator over one device client, normally the
// active node of the pair.
func NewSyncer(client SyncClient, opts SyncerOptions) *Syncer {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultSyncPollInterval
	}
	checks := opts.MaxChecks
	if checks <= 0 {
		checks = DefaultSyncMaxChecks
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		// Attempt budget plus slack; the wall-clock deadline guards
		// against slow devices stretching individual polls.
		maxWait = time.Duration(checks+1) * interval * 2
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Syncer{
		client:       client,
		pollInterval: interval,
		maxChecks:    checks,
		maxWait:      maxWait,
		clock:        clock,
		sleep:        sleep,
	}
}

// EnsureSynchronized inspects the device's running-sync state, triggers a
// sync-to-peer when the pair is not synchronized, and polls until the peer
// reaches the synchronized state or the budget runs out.
//
//   - Synchronized: terminal success, no action taken.
//   - InProgress: never re-triggered; wait for the in-flight sync.
//   - NotSynchronized: trigger exactly one sync, then wait.
//   - anything else: *SyncError with SyncUnknownState, surfaced for
//     operator attention rather than guessed at.
//
// A *SyncError with SyncTimeout means the budget was exhausted; the sync
// may still complete on its own, so callers decide whether that aborts
// their stage or is merely a warning.
func (s *Syncer) EnsureSynchronized(ctx context.Context) error {
	info, err := s.client.HAInfo(ctx)
	if err != nil {
		return errors.Wrap(err, "read initial HA sync state")
	}
	switch info.RunningSync {
	case SyncSynchronized:
		log.Info().Str("host", s.client.Host()).Msg("HA configuration already synchronized")
		return nil
	case SyncInProgress:
		log.Info().Str("host", s.client.Host()).Msg("HA sync already in progress, waiting")
		return s.waitForSync(ctx)
	case SyncNotSynchronized:
		if err := s.client.SyncToPeer(ctx); err != nil {
			return &SyncError{Kind: SyncTriggerFailed, Host: s.client.Host(), Err: err}
		}
		return s.waitForSync(ctx)
	default:
		return &SyncError{Kind: SyncUnknownState, Host: s.client.Host(), State: info.RawSync}
	}
}

func (s *Syncer) waitForSync(ctx context.Context) error {
	deadline := s.clock().Add(s.maxWait)
	for check := 1; check <= s.maxChecks && s.clock().Before(deadline); check++ {
		s.sleep(s.pollInterval)
		info, err := s.client.HAInfo(ctx)
		if err != nil {
			// A single failed poll is transient; the budget still bounds
			// the total wait.
			log.Warn().Err(err).Str("host", s.client.Host()).Int("check", check).Int("max_checks", s.maxChecks).Msg("sync state poll failed, will retry")
			continue
		}
		log.Info().Str("host", s.client.Host()).Int("check", check).Int("max_checks", s.maxChecks).Str("state", info.RawSync).Msg("sync state poll")
		switch info.RunningSync {
		case SyncSynchronized:
			log.Info().Str("host", s.client.Host()).Msg("HA running-config synchronized")
			return nil
		case SyncInProgress:
			continue
		default:
			// The field's vocabulary is not perfectly stable; transient
			// values are tolerated, never re-triggered on.
			log.Warn().Str("host", s.client.Host()).Str("state", info.RawSync).Msg("unexpected sync state while waiting, continuing to poll")
		}
	}
	return &SyncError{Kind: SyncTimeout, Host: s.client.Host()}
}
