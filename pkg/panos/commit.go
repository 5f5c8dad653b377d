package panos

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultCommitTimeout is the wall-clock ceiling for monitoring one
	// batch of commit jobs.
	DefaultCommitTimeout = 10 * time.Minute
	// DefaultCommitPollInterval is the pause between job poll rounds. The
	// job API is cheap but the devices are slow; re-polling faster than
	// this just loads the management plane.
	DefaultCommitPollInterval = 15 * time.Second
)

// CommitClient is the per-device surface the commit monitor needs. *Client
// implements it.
type CommitClient interface {
	Host() string
	Commit(ctx context.Context, description string) (string, error)
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
}

// CommitPolicy selects how a device-level commit failure affects the batch.
type CommitPolicy int

const (
	// CommitStrict ends the whole operation on the first device whose job
	// finishes with a non-OK result.
	CommitStrict CommitPolicy = iota
	// CommitLenient records the failure and keeps monitoring the other
	// devices; used after configuration is already staged, where a commit
	// rejection on one node should not abandon the rest.
	CommitLenient
)

// CommitterOptions tunes the commit monitor. Zero values select defaults.
// Clock and Sleep exist for tests; production uses the real clock.
type CommitterOptions struct {
	Policy       CommitPolicy
	Timeout      time.Duration
	PollInterval time.Duration
	Clock        func() time.Time
	Sleep        func(time.Duration)
}

// Committer issues commit requests against a set of devices and polls every
// resulting job to a terminal state, bounded by a wall-clock deadline.
type Committer struct {
	clients      []CommitClient
	policy       CommitPolicy
	timeout      time.Duration
	pollInterval time.Duration
	clock        func() time.Time
	sleep        func(time.Duration)
}

// NewCommitter builds a commit monitor over the given device clients.
func NewCommitter(clients []CommitClient, opts CommitterOptions) *Committer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultCommitPollInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Committer{
		clients:      clients,
		policy:       opts.Policy,
		timeout:      timeout,
		pollInterval: interval,
		clock:        clock,
		sleep:        sleep,
	}
}

// pendingJob tracks one device's in-flight commit. Job ids are only unique
// per device, so the pending set is keyed by the (host, job id) pair and
// every status poll goes through the client that started the job.
type pendingJob struct {
	client CommitClient
	host   string
	jobID  string
}

// CommitAll commits on every device and monitors each job to a terminal
// state. It returns the hosts whose commit finished OK; the error, when
// non-nil, is a *CommitError enumerating the hosts that failed or never
// finished. Both are returned so callers that tolerate partial success can
// see exactly which devices are committed.
func (c *Committer) CommitAll(ctx context.Context, description string) ([]string, error) {
	pending := make([]pendingJob, 0, len(c.clients))
	failed := map[string]bool{}
	ready := map[string]bool{}

	for _, client := range c.clients {
		jobID, err := client.Commit(ctx, description)
		if err != nil {
			// The commit never started on this device. It counts against
			// overall success but must not be waited on.
			log.Error().Err(err).Str("host", client.Host()).Msg("commit request failed")
			failed[client.Host()] = true
			continue
		}
		if jobID == "" {
			log.Error().Str("host", client.Host()).Msg("commit response carried no job id")
			failed[client.Host()] = true
			continue
		}
		log.Info().Str("host", client.Host()).Str("job_id", jobID).Msg("commit job started")
		pending = append(pending, pendingJob{client: client, host: client.Host(), jobID: jobID})
	}

	if len(pending) == 0 {
		return nil, &CommitError{Kind: CommitNoJobsStarted, Hosts: sortedHosts(failed)}
	}

	deadline := c.clock().Add(c.timeout)
	for len(pending) > 0 && c.clock().Before(deadline) {
		remaining := pending[:0]
		for _, job := range pending {
			status, err := job.client.JobStatus(ctx, job.jobID)
			if err != nil {
				// Transient miss: keep the job pending and retry next
				// round. The deadline still bounds the total wait.
				log.Warn().Err(err).Str("host", job.host).Str("job_id", job.jobID).Msg("job status poll failed, will retry")
				remaining = append(remaining, job)
				continue
			}
			switch {
			case status.Running():
				log.Info().Str("host", job.host).Str("job_id", job.jobID).Int("progress", status.Progress).Msg("commit running")
				remaining = append(remaining, job)
			case status.Succeeded():
				log.Info().Str("host", job.host).Str("job_id", job.jobID).Msg("commit completed")
				ready[job.host] = true
			case status.Finished():
				log.Error().Str("host", job.host).Str("job_id", job.jobID).Str("result", status.Result).Str("response", snippet(status.Raw)).Msg("commit failed")
				failed[job.host] = true
				if c.policy == CommitStrict {
					return sortedHosts(ready), &CommitError{Kind: CommitIncomplete, Hosts: sortedHosts(failed)}
				}
			default:
				log.Warn().Str("host", job.host).Str("job_id", job.jobID).Str("status", status.Status).Msg("unrecognized job status, will retry")
				remaining = append(remaining, job)
			}
		}
		pending = remaining
		if len(pending) > 0 {
			c.sleep(c.pollInterval)
		}
	}

	if len(pending) > 0 {
		timedOut := map[string]bool{}
		for _, job := range pending {
			log.Error().Str("host", job.host).Str("job_id", job.jobID).Msg("commit monitoring timed out")
			timedOut[job.host] = true
		}
		kind := CommitTimeout
		if len(failed) > 0 {
			// Mixed outcome: some devices failed outright, the rest ran out
			// the clock. Report as incomplete with both sets enumerated.
			kind = CommitIncomplete
			for host := range timedOut {
				failed[host] = true
			}
			timedOut = failed
		}
		return sortedHosts(ready), &CommitError{Kind: kind, Hosts: sortedHosts(timedOut)}
	}
	if len(failed) > 0 {
		return sortedHosts(ready), &CommitError{Kind: CommitIncomplete, Hosts: sortedHosts(failed)}
	}
	return sortedHosts(ready), nil
}

func sortedHosts(set map[string]bool) []string {
	hosts := make([]string, 0, len(set))
	for host := range set {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
