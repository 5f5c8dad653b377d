package state

import (
	"errors"
	"path/filepath"
	"testing"
)

type samplePayload struct {
	Hosts []string `json:"hosts"`
	Done  bool     `json:"done"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	in := samplePayload{Hosts: []string{"10.0.0.1", "10.0.0.2"}, Done: true}
	if err := store.Save("apikeys", in); err != nil {
		t.Fatalf("save: %v", err)
	}
	var out samplePayload
	if err := store.Load("apikeys", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Hosts) != 2 || !out.Done {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestSaveOverwritesExistingStage(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("discovery", samplePayload{Done: false}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save("discovery", samplePayload{Done: true}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	var out samplePayload
	if err := store.Load("discovery", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !out.Done {
		t.Fatal("expected updated payload")
	}
}

func TestLoadMissingStageReturnsNotFound(t *testing.T) {
	store := openTestStore(t)

	var out samplePayload
	err := store.Load("nope", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadFirstFallsBackInOrder(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("apikeys", samplePayload{Hosts: []string{"10.0.0.1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var out samplePayload
	stage, err := store.LoadFirst(&out, "discovery", "apikeys")
	if err != nil {
		t.Fatalf("load first: %v", err)
	}
	if stage != "apikeys" {
		t.Fatalf("expected fallback to apikeys, got %s", stage)
	}

	if _, err := store.LoadFirst(&out, "missing-a", "missing-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetClearsAllStages(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("commit", samplePayload{Done: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	var out samplePayload
	if err := store.Load("commit", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}
