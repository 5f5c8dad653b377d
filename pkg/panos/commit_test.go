package panos

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubCommitClient struct {
	host      string
	jobID     string
	commitErr error

	statuses   []JobStatus
	statusErrs []error

	commitCalls int
	polledIDs   []string
}

func (s *stubCommitClient) Host() string { return s.host }

func (s *stubCommitClient) Commit(ctx context.Context, description string) (string, error) {
	s.commitCalls++
	return s.jobID, s.commitErr
}

func (s *stubCommitClient) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	idx := len(s.polledIDs)
	s.polledIDs = append(s.polledIDs, jobID)
	if idx < len(s.statusErrs) && s.statusErrs[idx] != nil {
		return JobStatus{}, s.statusErrs[idx]
	}
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return s.statuses[idx], nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCommitter(clients []CommitClient, policy CommitPolicy, timeout time.Duration) (*Committer, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	committer := NewCommitter(clients, CommitterOptions{
		Policy:       policy,
		Timeout:      timeout,
		PollInterval: 15 * time.Second,
		Clock:        clock.Now,
		Sleep:        clock.Advance,
	})
	return committer, clock
}

func running(progress int) JobStatus {
	return JobStatus{Status: JobStatusRunning, Progress: progress}
}

func finished(result string) JobStatus {
	return JobStatus{Status: JobStatusFinished, Progress: 100, Result: result}
}

func TestCommitAllSucceedsAcrossStaggeredFinishes(t *testing.T) {
	devA := &stubCommitClient{
		host:     "10.0.0.1",
		jobID:    "101",
		statuses: []JobStatus{running(50), running(90), finished(JobResultOK)},
	}
	devB := &stubCommitClient{
		host:     "10.0.0.2",
		jobID:    "55",
		statuses: []JobStatus{finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitStrict, 10*time.Minute)

	ready, err := committer.CommitAll(context.Background(), "bringup")
	if err != nil {
		t.Fatalf("commit all: %v", err)
	}
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready hosts, got %v", ready)
	}
	// Device B finishing first must not be blocked on device A.
	if len(devB.polledIDs) != 1 {
		t.Fatalf("device B polled %d times, want 1", len(devB.polledIDs))
	}
	if len(devA.polledIDs) != 3 {
		t.Fatalf("device A polled %d times, want 3", len(devA.polledIDs))
	}
}

func TestCommitAllStrictFailsOnFirstRejectedJob(t *testing.T) {
	devA := &stubCommitClient{
		host:     "10.0.0.1",
		jobID:    "7",
		statuses: []JobStatus{finished("FAIL")},
	}
	devB := &stubCommitClient{
		host:     "10.0.0.2",
		jobID:    "8",
		statuses: []JobStatus{finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitStrict, 10*time.Minute)

	_, err := committer.CommitAll(context.Background(), "")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if commitErr.Kind != CommitIncomplete {
		t.Fatalf("expected incomplete, got %v", commitErr.Kind)
	}
	if len(commitErr.Hosts) != 1 || commitErr.Hosts[0] != "10.0.0.1" {
		t.Fatalf("unexpected failed hosts %v", commitErr.Hosts)
	}
}

func TestCommitAllLenientKeepsMonitoringAfterFailure(t *testing.T) {
	devA := &stubCommitClient{
		host:     "10.0.0.1",
		jobID:    "7",
		statuses: []JobStatus{finished("FAIL")},
	}
	devB := &stubCommitClient{
		host:     "10.0.0.2",
		jobID:    "8",
		statuses: []JobStatus{running(30), finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitLenient, 10*time.Minute)

	ready, err := committer.CommitAll(context.Background(), "")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if commitErr.Kind != CommitIncomplete {
		t.Fatalf("expected incomplete, got %v", commitErr.Kind)
	}
	if len(ready) != 1 || ready[0] != "10.0.0.2" {
		t.Fatalf("expected device B ready, got %v", ready)
	}
}

func TestCommitAllSkipsDeviceWithoutJobID(t *testing.T) {
	devA := &stubCommitClient{host: "10.0.0.1", jobID: ""}
	devB := &stubCommitClient{
		host:     "10.0.0.2",
		jobID:    "9",
		statuses: []JobStatus{finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitLenient, 10*time.Minute)

	ready, err := committer.CommitAll(context.Background(), "")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if len(devA.polledIDs) != 0 {
		t.Fatalf("device without job id must never be polled, got %d polls", len(devA.polledIDs))
	}
	if len(ready) != 1 || ready[0] != "10.0.0.2" {
		t.Fatalf("expected device B ready, got %v", ready)
	}
	if len(commitErr.Hosts) != 1 || commitErr.Hosts[0] != "10.0.0.1" {
		t.Fatalf("unexpected failed hosts %v", commitErr.Hosts)
	}
}

func TestCommitAllFailsImmediatelyWithNoJobs(t *testing.T) {
	devA := &stubCommitClient{host: "10.0.0.1", commitErr: errors.New("connection refused")}
	devB := &stubCommitClient{host: "10.0.0.2", jobID: ""}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitStrict, 10*time.Minute)

	_, err := committer.CommitAll(context.Background(), "")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if commitErr.Kind != CommitNoJobsStarted {
		t.Fatalf("expected no jobs started, got %v", commitErr.Kind)
	}
	if len(commitErr.Hosts) != 2 {
		t.Fatalf("expected both hosts enumerated, got %v", commitErr.Hosts)
	}
}

func TestCommitAllTimesOutOnStuckJob(t *testing.T) {
	dev := &stubCommitClient{
		host:     "10.0.0.1",
		jobID:    "3",
		statuses: []JobStatus{running(10)},
	}
	committer, _ := newTestCommitter([]CommitClient{dev}, CommitStrict, 30*time.Second)

	_, err := committer.CommitAll(context.Background(), "")
	var commitErr *CommitError
	if !errors.As(err, &commitErr) {
		t.Fatalf("expected CommitError, got %v", err)
	}
	if commitErr.Kind != CommitTimeout {
		t.Fatalf("expected timeout, got %v", commitErr.Kind)
	}
	if len(commitErr.Hosts) != 1 || commitErr.Hosts[0] != "10.0.0.1" {
		t.Fatalf("unexpected hosts %v", commitErr.Hosts)
	}
}

func TestCommitAllToleratesTransientPollFailure(t *testing.T) {
	dev := &stubCommitClient{
		host:       "10.0.0.1",
		jobID:      "3",
		statusErrs: []error{errors.New("timeout awaiting response")},
		statuses:   []JobStatus{{}, finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{dev}, CommitStrict, 10*time.Minute)

	ready, err := committer.CommitAll(context.Background(), "")
	if err != nil {
		t.Fatalf("commit all: %v", err)
	}
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready host, got %v", ready)
	}
	if len(dev.polledIDs) != 2 {
		t.Fatalf("expected a retry after the transient miss, got %d polls", len(dev.polledIDs))
	}
}

func TestCommitAllKeysJobsByHostAndJobID(t *testing.T) {
	// Both devices hand back the same job id; each poll must go to the
	// client that owns the job.
	devA := &stubCommitClient{
		host:     "10.0.0.1",
		jobID:    "42",
		statuses: []JobStatus{finished(JobResultOK)},
	}
	devB := &stubCommitClient{
		host:     "10.0.0.2",
		jobID:    "42",
		statuses: []JobStatus{running(80), finished(JobResultOK)},
	}
	committer, _ := newTestCommitter([]CommitClient{devA, devB}, CommitStrict, 10*time.Minute)

	ready, err := committer.CommitAll(context.Background(), "")
	if err != nil {
		t.Fatalf("commit all: %v", err)
	}
	if len(ready) != 2 {
		t.Fatalf("expected both hosts ready, got %v", ready)
	}
	for _, id := range devA.polledIDs {
		if id != "42" {
			t.Fatalf("device A polled with foreign job id %s", id)
		}
	}
	if len(devA.polledIDs) != 1 || len(devB.polledIDs) != 2 {
		t.Fatalf("unexpected poll counts: A=%d B=%d", len(devA.polledIDs), len(devB.polledIDs))
	}
}
