package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/dbmesh/internal/server"
	"github.com/txn2/dbmesh/pkg/credentials"
	"github.com/txn2/dbmesh/pkg/health"
	"github.com/txn2/dbmesh/pkg/middleware"
	"github.com/txn2/dbmesh/pkg/registry"
)

// Platform is the main platform facade.
type Platform struct {
	config *Config

	store     *credentials.Store
	registry  *registry.Registry
	mcpServer *mcp.Server
	registrar *server.Registrar
	lifecycle *Lifecycle
	health    *health.Checker
}

// New builds the platform: it loads credentials, activates the enabled
// connectors and registers everything they expose. Connections are opened
// by Start.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		config:    cfg,
		lifecycle: NewLifecycle(),
		health:    health.NewChecker(),
	}

	p.initCredentials(options)
	if err := p.initRegistry(options); err != nil {
		return nil, err
	}
	p.initServer(options)
	p.registerAll()
	p.registerLifecycle()

	return p, nil
}

// initCredentials opens the credential store. Load failures are logged by the
// store and leave an empty set; they never abort startup.
func (p *Platform) initCredentials(opts *Options) {
	if opts.CredentialStore != nil {
		p.store = opts.CredentialStore
		return
	}
	store, result := credentials.Open(p.config.Credentials.Path)
	slog.Info("credentials loaded", "path", store.Path(), "state", result.State.String())
	p.store = store
}

func (p *Platform) initRegistry(opts *Options) error {
	regOpts := []registry.Option{registry.WithCredentials(p.store)}
	if opts.Factories != nil {
		regOpts = append(regOpts, registry.WithFactories(opts.Factories))
	}

	p.registry = registry.New(p.config.Connectors.Enabled, regOpts...)
	if err := p.registry.Setup(); err != nil {
		return fmt.Errorf("activating connectors: %w", err)
	}
	return nil
}

func (p *Platform) initServer(opts *Options) {
	p.mcpServer = opts.MCPServer
	if p.mcpServer == nil {
		p.mcpServer = server.NewMCPServer(p.config.Server.Name, slog.Default())
	}
	p.mcpServer.AddReceivingMiddleware(
		middleware.MCPToolCallMiddleware(p.registry),
		middleware.MCPClientLoggingMiddleware(middleware.ClientLoggingConfig{
			Enabled: p.config.Server.ClientLogging,
		}),
	)
	p.registrar = server.NewRegistrar(p.mcpServer,
		server.WithDuplicateWarnings(p.config.Server.OnDuplicate == DuplicateWarn))
}

// registerAll forwards connector capabilities and adds the platform tools.
func (p *Platform) registerAll() {
	tools := p.registry.AddAllTools(p.registrar)
	resources := p.registry.AddAllResources(p.registrar)
	prompts := p.registry.AddAllPrompts(p.registrar)

	for _, op := range p.platformTools() {
		p.registrar.RegisterTool(op)
	}

	slog.Info("connectors registered",
		"connectors", p.registry.Enabled(),
		"tools", tools,
		"resources", resources,
		"prompts", prompts)
}

// registerLifecycle opens connector connections on Start and closes them in
// reverse order on Stop.
func (p *Platform) registerLifecycle() {
	for _, e := range p.registry.Connectors() {
		conn := e.Connector
		p.lifecycle.Append(Hook{
			Name:  "connector " + e.ID,
			Start: conn.SetupConnection,
			Stop:  func(context.Context) error { return conn.CloseConnection() },
		})
	}
}

// Start opens every connector connection. When one fails, those already
// opened are closed and the error is returned.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.lifecycle.Start(ctx); err != nil {
		return err
	}
	p.health.SetReady(p.registry.Enabled()...)
	return nil
}

// Stop marks the platform draining and closes connector connections.
func (p *Platform) Stop(ctx context.Context) error {
	p.health.SetDraining()
	return p.lifecycle.Stop(ctx)
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Registry returns the connector registry.
func (p *Platform) Registry() *registry.Registry {
	return p.registry
}

// CredentialStore returns the credential store.
func (p *Platform) CredentialStore() *credentials.Store {
	return p.store
}

// Health returns the readiness checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}
