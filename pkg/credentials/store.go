// Package credentials provides a YAML-backed store for database connection
// parameters.
//
// The store is best-effort: I/O and parse failures are logged and absorbed so a
// broken config file never takes the host process down. Load and Save report
// what happened through typed results instead of errors.
package credentials

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Section is the top-level key holding the credential set.
const Section = "database"

// DefaultPath is used when no path is configured.
const DefaultPath = "config/db_config.yaml"

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Set is a flat key/value bag of connection parameters. Keys are not validated.
type Set map[string]any

// Defaults returns the placeholder credential set written when no file exists.
func Defaults() Set {
	return Set{
		"host":     "localhost",
		"port":     5432,
		"username": "postgres",
		"password": "password",
		"database": "dbmesh",
	}
}

// LoadState describes how the in-memory set was populated.
type LoadState int

// Load states.
const (
	// StateLoaded means an existing file was parsed.
	StateLoaded LoadState = iota
	// StateDefaulted means the file was missing and defaults were written.
	StateDefaulted
	// StateFailed means loading failed and the set is empty.
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDefaulted:
		return "defaulted"
	default:
		return "failed"
	}
}

// LoadResult reports the outcome of Load. Err is set only when State is
// StateFailed.
type LoadResult struct {
	State LoadState
	Err   error
}

// SaveResult reports the outcome of Save. A failed save leaves the in-memory
// set intact but the file may be stale.
type SaveResult struct {
	Err error
}

// OK reports whether the save succeeded.
func (r SaveResult) OK() bool {
	return r.Err == nil
}

// Store owns a credential set persisted under the "database" section of a
// YAML file. It is safe for concurrent use.
type Store struct {
	path string

	mu    sync.RWMutex
	creds Set
}

// New creates a store for the given file. The file is not read until Load.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:  path,
		creds: Set{},
	}
}

// Open creates a store and loads it.
func Open(path string) (*Store, LoadResult) {
	s := New(path)
	return s, s.Load()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file, writing defaults first when it does not exist.
// On failure the in-memory set is left empty.
func (s *Store) Load() LoadResult {
	creds, state, err := s.read()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		slog.Warn("loading credentials failed, continuing with empty set",
			"path", s.path, "error", err)
		s.creds = Set{}
		return LoadResult{State: StateFailed, Err: err}
	}

	s.creds = creds
	slog.Debug("credentials loaded", "path", s.path, "state", state.String(), "keys", len(creds))
	return LoadResult{State: state}
}

func (s *Store) read() (Set, LoadState, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return nil, StateFailed, fmt.Errorf("creating config directory: %w", err)
	}

	state := StateLoaded
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := writeDocument(s.path, map[string]any{Section: map[string]any(Defaults())}); err != nil {
			return nil, StateFailed, fmt.Errorf("writing default config: %w", err)
		}
		state = StateDefaulted
	} else if err != nil {
		return nil, StateFailed, fmt.Errorf("checking config file: %w", err)
	}

	doc, err := readDocument(s.path)
	if err != nil {
		return nil, StateFailed, err
	}

	creds, err := section(doc)
	if err != nil {
		return nil, StateFailed, err
	}
	return creds, state, nil
}

// Credentials returns a copy of the in-memory set.
func (s *Store) Credentials() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.creds)
}

// Redacted returns a copy of the in-memory set with the password masked.
func (s *Store) Redacted() Set {
	creds := s.Credentials()
	if _, ok := creds["password"]; ok {
		creds["password"] = "********"
	}
	return creds
}

// Update overlays partial onto the in-memory set key by key. Keys absent from
// partial keep their current value. Nothing is persisted until Save.
func (s *Store) Update(partial Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.creds, partial)
}

// Save writes the in-memory set back to the "database" section of the file.
// Other top-level sections are preserved. A missing file is created. An
// existing file that cannot be read or parsed is left untouched and the
// failure is reported in the result.
func (s *Store) Save() SaveResult {
	doc, err := readDocument(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		doc = map[string]any{}
	case err != nil:
		slog.Warn("saving credentials failed, existing config unreadable", "path", s.path, "error", err)
		return SaveResult{Err: err}
	}

	s.mu.RLock()
	doc[Section] = map[string]any(maps.Clone(s.creds))
	s.mu.RUnlock()

	if err := writeDocument(s.path, doc); err != nil {
		slog.Warn("saving credentials failed", "path", s.path, "error", err)
		return SaveResult{Err: err}
	}
	return SaveResult{}
}

func readDocument(path string) (map[string]any, error) {
	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// section extracts the credential mapping. A missing section is an empty set.
func section(doc map[string]any) (Set, error) {
	raw, ok := doc[Section]
	if !ok || raw == nil {
		return Set{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q section is %T, want a mapping", Section, raw)
	}
	return Set(m), nil
}
