package panos

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubHAStateClient struct {
	host   string
	states []string
	errs   []error

	calls int
}

func (s *stubHAStateClient) Host() string { return s.host }

func (s *stubHAStateClient) HAInfo(ctx context.Context) (HAInfo, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return HAInfo{}, s.errs[idx]
	}
	if idx >= len(s.states) {
		idx = len(s.states) - 1
	}
	return HAInfo{State: s.states[idx]}, nil
}

func findActiveOpts(fallback FallbackPolicy, sleeps *int) FindActiveOptions {
	return FindActiveOptions{
		Attempts:   3,
		RetryDelay: 10 * time.Second,
		Fallback:   fallback,
		Sleep: func(time.Duration) {
			if sleeps != nil {
				*sleeps++
			}
		},
	}
}

func TestFindActiveReturnsFirstActiveInInputOrder(t *testing.T) {
	// Both report active; the first in input order wins and the second is
	// never queried.
	devA := &stubHAStateClient{host: "10.0.0.1", states: []string{"active"}}
	devB := &stubHAStateClient{host: "10.0.0.2", states: []string{"active"}}

	got, usedFallback, err := FindActive(context.Background(), []HAStateClient{devA, devB}, findActiveOpts(FallbackNone, nil))
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got.Host() != "10.0.0.1" {
		t.Fatalf("expected first device, got %s", got.Host())
	}
	if usedFallback {
		t.Fatal("fallback must not be reported for a real active node")
	}
	if devB.calls != 0 {
		t.Fatalf("search must short-circuit, device B queried %d times", devB.calls)
	}
}

func TestFindActiveSkipsFailingDevice(t *testing.T) {
	devA := &stubHAStateClient{host: "10.0.0.1", errs: []error{errors.New("connection refused")}, states: []string{""}}
	devB := &stubHAStateClient{host: "10.0.0.2", states: []string{"active"}}

	got, usedFallback, err := FindActive(context.Background(), []HAStateClient{devA, devB}, findActiveOpts(FallbackNone, nil))
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got.Host() != "10.0.0.2" {
		t.Fatalf("expected second device, got %s", got.Host())
	}
	if usedFallback {
		t.Fatal("fallback must not be reported for a real active node")
	}
}

func TestFindActiveRetriesUntilElectionSettles(t *testing.T) {
	sleeps := 0
	devA := &stubHAStateClient{host: "10.0.0.1", states: []string{"passive", "active"}}
	devB := &stubHAStateClient{host: "10.0.0.2", states: []string{"passive"}}

	got, usedFallback, err := FindActive(context.Background(), []HAStateClient{devA, devB}, findActiveOpts(FallbackNone, &sleeps))
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got.Host() != "10.0.0.1" {
		t.Fatalf("expected first device, got %s", got.Host())
	}
	if sleeps != 1 {
		t.Fatalf("expected one retry delay, got %d", sleeps)
	}
	if usedFallback {
		t.Fatal("fallback must not be reported for a real active node")
	}
}

func TestFindActiveStrictFailsWhenNoneActive(t *testing.T) {
	devA := &stubHAStateClient{host: "10.0.0.1", states: []string{"passive"}}
	devB := &stubHAStateClient{host: "10.0.0.2", states: []string{"passive"}}

	_, _, err := FindActive(context.Background(), []HAStateClient{devA, devB}, findActiveOpts(FallbackNone, nil))
	if !errors.Is(err, ErrNoActiveFound) {
		t.Fatalf("expected ErrNoActiveFound, got %v", err)
	}
	if devA.calls != 3 || devB.calls != 3 {
		t.Fatalf("expected 3 attempts per device, got A=%d B=%d", devA.calls, devB.calls)
	}
}

func TestFindActiveFallsBackToFirstDevice(t *testing.T) {
	devA := &stubHAStateClient{host: "10.0.0.1", states: []string{"passive"}}
	devB := &stubHAStateClient{host: "10.0.0.2", states: []string{"passive"}}

	got, usedFallback, err := FindActive(context.Background(), []HAStateClient{devA, devB}, findActiveOpts(FallbackFirstDevice, nil))
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if got.Host() != "10.0.0.1" {
		t.Fatalf("expected fallback to first device, got %s", got.Host())
	}
	if !usedFallback {
		t.Fatal("fallback use must be reported")
	}
}

func TestFindActiveRejectsEmptySessionList(t *testing.T) {
	if _, _, err := FindActive(context.Background(), nil, findActiveOpts(FallbackFirstDevice, nil)); err == nil {
		t.Fatal("expected error for empty session list")
	}
}
