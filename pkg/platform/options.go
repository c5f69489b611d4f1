package platform

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/dbmesh/pkg/credentials"
	"github.com/txn2/dbmesh/pkg/registry"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration (defaults when nil).
	Config *Config

	// CredentialStore (optional, opened from Config.Credentials.Path if not provided).
	CredentialStore *credentials.Store

	// Factories (optional, registry.Builtin() if not provided).
	Factories map[string]registry.Factory

	// MCPServer (optional, created from Config.Server.Name if not provided).
	MCPServer *mcp.Server
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithCredentialStore sets the credential store.
func WithCredentialStore(store *credentials.Store) Option {
	return func(o *Options) {
		o.CredentialStore = store
	}
}

// WithFactories replaces the built-in connector factories.
func WithFactories(factories map[string]registry.Factory) Option {
	return func(o *Options) {
		o.Factories = factories
	}
}

// WithMCPServer sets the MCP server registrations are made on.
func WithMCPServer(srv *mcp.Server) Option {
	return func(o *Options) {
		o.MCPServer = srv
	}
}
