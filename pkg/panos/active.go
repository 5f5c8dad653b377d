package panos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultActiveAttempts is the number of full passes over the device
	// list when resolving the active node.
	DefaultActiveAttempts = 3
	// DefaultActiveRetryDelay is the pause between passes.
	DefaultActiveRetryDelay = 10 * time.Second
)

// HAStateClient is the surface the active-node resolver needs per device.
// *Client implements it.
type HAStateClient interface {
	Host() string
	HAInfo(ctx context.Context) (HAInfo, error)
}

// FallbackPolicy decides what FindActive does when no device ever reports
// the active role.
type FallbackPolicy int

const (
	// FallbackNone fails with ErrNoActiveFound.
	FallbackNone FallbackPolicy = iota
	// FallbackFirstDevice returns the first device in the input list with a
	// logged warning. A brand-new HA pair may not have finished electing an
	// active node, and downstream configuration must still target some
	// node.
	FallbackFirstDevice
)

// FindActiveOptions tunes the resolver. Zero values select defaults.
type FindActiveOptions struct {
	Attempts   int
	RetryDelay time.Duration
	Fallback   FallbackPolicy
	Sleep      func(time.Duration)
}

// FindActive polls each device's HA role in input order and returns the
// first one reporting active. Only one node can correctly be active at a
// time, so the search short-circuits on the first hit, which also makes the
// tie-break deterministic. A device whose query fails counts as not-active
// for that pass; the remaining devices are still checked.
//
// The second return value reports that the fallback device was used
// because no node ever reported active.
func FindActive(ctx context.Context, clients []HAStateClient, opts FindActiveOptions) (HAStateClient, bool, error) {
	if len(clients) == 0 {
		return nil, false, errors.New("panos: no device sessions to resolve active node from")
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultActiveAttempts
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultActiveRetryDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		for _, client := range clients {
			info, err := client.HAInfo(ctx)
			if err != nil {
				log.Warn().Err(err).Str("host", client.Host()).Int("attempt", attempt).Msg("HA state query failed, treating as not active")
				continue
			}
			log.Debug().Str("host", client.Host()).Str("state", info.State).Int("attempt", attempt).Msg("HA role observed")
			if info.Active() {
				log.Info().Str("host", client.Host()).Msg("active firewall identified")
				return client, false, nil
			}
		}
		if attempt < attempts {
			log.Info().Int("attempt", attempt).Int("max_attempts", attempts).Msg("no active node yet, retrying")
			sleep(delay)
		}
	}

	if opts.Fallback == FallbackFirstDevice {
		log.Warn().Str("host", clients[0].Host()).Msg("no device reported active, falling back to first device")
		return clients[0], true, nil
	}
	return nil, false, ErrNoActiveFound
}
