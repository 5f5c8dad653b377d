package state

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	envStateDBPath    = "PANFW_STATE_DB"
	defaultDBDirName  = ".panfw"
	defaultDBFileName = "state.sqlite"

	stateTable = "pipeline_state"
)

// ErrNotFound is returned by Load when a stage has not persisted state yet.
var ErrNotFound = errors.New("state: stage not found")

// Store persists per-stage pipeline state as JSON blobs in SQLite, so each
// subcommand can pick up where the previous stage left off.
type Store struct {
	db *sql.DB
}

// ResolvePath returns the state database path: the explicit argument if
// non-empty, then $PANFW_STATE_DB, then ~/.panfw/state.sqlite. The parent
// directory is created when missing.
func ResolvePath(explicit string) (string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envStateDBPath))
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "state: locate user home failed")
		}
		path = filepath.Join(home, defaultDBDirName, defaultDBFileName)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "state: create dir %s failed", dir)
		}
	}
	return path, nil
}

// Open opens (and if necessary creates) the state database at path. An
// empty path selects the default location, see ResolvePath.
func Open(path string) (*Store, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "state: open %s failed", resolved)
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := prepareSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", resolved).Msg("state store opened")
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save marshals v and upserts it under the stage key.
func (s *Store) Save(stage string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "state: marshal stage %s failed", stage)
	}
	_, err = s.db.Exec(
		`INSERT INTO `+stateTable+` (stage, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(stage) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		stage, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrapf(err, "state: save stage %s failed", stage)
	}
	return nil
}

// Load unmarshals the stage's payload into out. ErrNotFound is returned
// when the stage never saved state.
func (s *Store) Load(stage string, out any) error {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM `+stateTable+` WHERE stage = ?`, stage).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, stage)
	}
	if err != nil {
		return errors.Wrapf(err, "state: load stage %s failed", stage)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return errors.Wrapf(err, "state: unmarshal stage %s failed", stage)
	}
	return nil
}

// LoadFirst tries each stage in order and unmarshals the first one present,
// returning its name. Stages use this to fall back to an earlier stage's
// state when a later one was skipped.
func (s *Store) LoadFirst(out any, stages ...string) (string, error) {
	for _, stage := range stages {
		err := s.Load(stage, out)
		if err == nil {
			return stage, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", errors.Wrapf(ErrNotFound, "none of %s", strings.Join(stages, ", "))
}

// Reset removes every persisted stage, giving the next run a clean slate.
func (s *Store) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM ` + stateTable); err != nil {
		return errors.Wrap(err, "state: reset failed")
	}
	return nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=60000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "state: execute %s failed", pragma)
		}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return nil
}

func prepareSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + stateTable + ` (
		stage TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return errors.Wrap(err, "state: create schema failed")
	}
	return nil
}
