package panos

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	errEmptyHost = errors.New("panos: device session has empty host")

	// ErrNoActiveFound is returned by FindActive when every attempt is
	// exhausted without any device reporting the active HA role and no
	// fallback is permitted.
	ErrNoActiveFound = errors.New("panos: no device reported active HA state")
)

// ConfigError reports a non-success HTTP status on a config get/set request.
// The raw body is kept so operators can diagnose from the pipeline log alone.
type ConfigError struct {
	Host       string
	StatusCode int
	Body       string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("panos: config request to %s failed with HTTP %d: %s", e.Host, e.StatusCode, snippet(e.Body))
}

// APIError reports an application-level failure: the transport succeeded but
// the XML envelope carried status="error".
type APIError struct {
	Host    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("panos: %s returned API error (code %s): %s", e.Host, e.Code, e.Message)
	}
	return fmt.Sprintf("panos: %s returned API error: %s", e.Host, e.Message)
}

// CommitErrorKind classifies how a commit-and-monitor run failed.
type CommitErrorKind int

const (
	// CommitNoJobsStarted means no device handed back a job identifier, so
	// there was never anything to monitor.
	CommitNoJobsStarted CommitErrorKind = iota
	// CommitIncomplete means at least one device failed its commit or never
	// reached a terminal state; Hosts enumerates them.
	CommitIncomplete
	// CommitTimeout means every remaining job was still running when the
	// overall deadline elapsed.
	CommitTimeout
)

func (k CommitErrorKind) String() string {
	switch k {
	case CommitNoJobsStarted:
		return "no jobs started"
	case CommitIncomplete:
		return "incomplete"
	case CommitTimeout:
		return "timeout"
	}
	return "unknown"
}

// CommitError is the terminal failure of Committer.CommitAll. Hosts lists
// the devices that failed or never finished, so callers can distinguish a
// total failure from a partial one.
type CommitError struct {
	Kind  CommitErrorKind
	Hosts []string
}

func (e *CommitError) Error() string {
	if len(e.Hosts) == 0 {
		return fmt.Sprintf("panos: commit %s", e.Kind)
	}
	return fmt.Sprintf("panos: commit %s on hosts %s", e.Kind, strings.Join(e.Hosts, ", "))
}

// SyncErrorKind classifies HA running-config sync failures.
type SyncErrorKind int

const (
	// SyncTriggerFailed means the sync-to-remote request itself failed.
	SyncTriggerFailed SyncErrorKind = iota
	// SyncUnknownState means the device reported a sync state outside the
	// known vocabulary; surfaced for operator attention instead of guessed at.
	SyncUnknownState
	// SyncTimeout means the poll budget was exhausted without ever
	// observing the synchronized state.
	SyncTimeout
)

func (k SyncErrorKind) String() string {
	switch k {
	case SyncTriggerFailed:
		return "trigger failed"
	case SyncUnknownState:
		return "unknown state"
	case SyncTimeout:
		return "timeout"
	}
	return "unknown"
}

// SyncError is the terminal failure of Syncer.EnsureSynchronized.
type SyncError struct {
	Kind  SyncErrorKind
	Host  string
	State string
	Err   error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("panos: HA sync on %s: %s", e.Host, e.Kind)
	if e.State != "" {
		msg += fmt.Sprintf(" (state %q)", e.State)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error { return e.Err }

// snippet truncates raw response bodies for error messages; full bodies go
// to the structured log, not the error chain.
func snippet(body string) string {
	const max = 200
	body = strings.TrimSpace(body)
	if len(body) > max {
		return body[:max] + "..."
	}
	return body
}
