// Package postgres provides a PostgreSQL connector. It holds connection
// parameters, opens a database/sql pool through lib/pq and exposes read-only
// catalog and query tools.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/txn2/dbmesh/pkg/connector"
)

// Kind identifies this connector in errors and logs.
const Kind = "postgres"

const (
	driverName     = "postgres"
	defaultMaxRows = 1000
)

// OpenFunc opens a database handle. It matches sql.Open.
type OpenFunc func(driverName, dsn string) (*sql.DB, error)

// Connector is the PostgreSQL connector.
type Connector struct {
	mu      sync.RWMutex
	cfg     Config
	lookup  LookupFunc
	open    OpenFunc
	db      *sql.DB
	maxRows int
}

var (
	_ connector.Connector    = (*Connector)(nil)
	_ connector.Configurable = (*Connector)(nil)
)

// Option configures a Connector.
type Option func(*Connector)

// WithConfig sets connection parameters, bypassing environment overrides.
func WithConfig(cfg Config) Option {
	return func(c *Connector) {
		c.cfg = cfg
		c.lookup = func(string) (string, bool) { return "", false }
	}
}

// WithEnv sets the lookup used for POSTGRES_* overrides.
func WithEnv(lookup LookupFunc) Option {
	return func(c *Connector) {
		c.lookup = lookup
	}
}

// WithOpener replaces sql.Open.
func WithOpener(open OpenFunc) Option {
	return func(c *Connector) {
		c.open = open
	}
}

// WithDB uses an already open handle. SetupConnection becomes a no-op.
func WithDB(db *sql.DB) Option {
	return func(c *Connector) {
		c.db = db
	}
}

// WithMaxRows caps the rows returned by postgres_query.
func WithMaxRows(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxRows = n
		}
	}
}

// New creates a connector with default parameters overlaid by POSTGRES_*
// variables from the environment and the .env file.
func New(opts ...Option) *Connector {
	c := &Connector{
		cfg:     DefaultConfig(),
		open:    sql.Open,
		maxRows: defaultMaxRows,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lookup == nil {
		c.lookup = EnvLookup(EnvFile)
	}
	if err := c.cfg.ApplyEnv(c.lookup); err != nil {
		slog.Warn("ignoring postgres environment override", "error", err)
	}
	return c
}

// Configure rebuilds the parameters from defaults, the given credentials and
// environment overrides, in that order of precedence.
func (c *Connector) Configure(creds connector.Credentials) error {
	cfg := DefaultConfig()
	if err := cfg.ApplyCredentials(creds); err != nil {
		return fmt.Errorf("applying credentials: %w", err)
	}
	if err := cfg.ApplyEnv(c.lookup); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	return nil
}

// Config returns the current connection parameters.
func (c *Connector) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// ConnectionURL returns the connection URL for the current parameters.
func (c *Connector) ConnectionURL() string {
	return c.Config().ConnectionURL()
}

// ConnectionParams returns the current parameters as a mapping.
func (c *Connector) ConnectionParams() map[string]any {
	return c.Config().ConnectionParams()
}

// SetupConnection opens the pool and verifies it with a ping. Calling it again
// while connected does nothing.
func (c *Connector) SetupConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return connector.NewConnectionError(Kind, err)
	}

	db, err := c.open(driverName, c.cfg.DSN())
	if err != nil {
		return connector.NewConnectionError(Kind, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return connector.NewConnectionError(Kind, err)
	}

	c.db = db
	slog.Info("postgres connection established",
		"host", c.cfg.Host, "port", c.cfg.Port, "database", c.cfg.Database)
	return nil
}

// CloseConnection closes the pool if one is open.
func (c *Connector) CloseConnection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("closing postgres connection: %w", err)
	}
	return nil
}

// handle returns the open pool or ErrNotConnected.
func (c *Connector) handle() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, connector.ErrNotConnected
	}
	return c.db, nil
}
