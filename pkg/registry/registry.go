package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/txn2/dbmesh/pkg/connector"
)

// ErrUnknownConnector is returned by Setup when an enabled identifier has no
// factory. Both lists are compiled in, so this indicates a build defect.
var ErrUnknownConnector = errors.New("unknown connector")

// ErrAlreadySetup is returned when Setup is called more than once.
var ErrAlreadySetup = errors.New("registry already set up")

// Registry activates the enabled connectors and forwards what they expose.
type Registry struct {
	mu sync.RWMutex

	enabled     []string
	factories   map[string]Factory
	credentials CredentialSource

	entries []Entry
	setup   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactories replaces the built-in factory mapping.
func WithFactories(factories map[string]Factory) Option {
	return func(r *Registry) {
		r.factories = factories
	}
}

// WithCredentials supplies connection parameters to connectors implementing
// connector.Configurable.
func WithCredentials(src CredentialSource) Option {
	return func(r *Registry) {
		r.credentials = src
	}
}

// New creates a registry for the given enabled identifiers. A nil list
// activates DefaultEnabled.
func New(enabled []string, opts ...Option) *Registry {
	if enabled == nil {
		enabled = DefaultEnabled
	}
	r := &Registry{
		enabled:   append([]string(nil), enabled...),
		factories: Builtin(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled returns the identifiers this registry activates, in order.
func (r *Registry) Enabled() []string {
	return append([]string(nil), r.enabled...)
}

// Setup instantiates every enabled connector in order. An identifier with no
// factory aborts setup with ErrUnknownConnector and nothing is activated.
func (r *Registry) Setup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.setup {
		return ErrAlreadySetup
	}

	entries := make([]Entry, 0, len(r.enabled))
	for _, id := range r.enabled {
		factory, ok := r.factories[id]
		if !ok {
			return fmt.Errorf("%w: %q (known: %s)", ErrUnknownConnector, id, strings.Join(r.known(), ", "))
		}

		conn := factory()
		if err := r.configure(id, conn); err != nil {
			return err
		}
		entries = append(entries, Entry{ID: id, Connector: conn})
	}

	r.entries = entries
	r.setup = true
	return nil
}

func (r *Registry) configure(id string, conn connector.Connector) error {
	configurable, ok := conn.(connector.Configurable)
	if !ok || r.credentials == nil {
		return nil
	}
	if err := configurable.Configure(connector.Credentials(r.credentials.Credentials())); err != nil {
		return fmt.Errorf("configuring connector %s: %w", id, err)
	}
	return nil
}

func (r *Registry) known() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Connectors returns the activated connectors in enabled order.
func (r *Registry) Connectors() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// AddAllTools forwards every operation of every connector to reg and returns
// how many were forwarded. Duplicate names are passed through untouched.
func (r *Registry) AddAllTools(reg ToolRegistrar) int {
	n := 0
	for _, e := range r.Connectors() {
		for _, op := range e.Connector.Tools() {
			reg.RegisterTool(op)
			n++
		}
	}
	return n
}

// AddAllResources forwards every resource of every connector to reg.
func (r *Registry) AddAllResources(reg ResourceRegistrar) int {
	n := 0
	for _, e := range r.Connectors() {
		for _, res := range e.Connector.Resources() {
			reg.RegisterResource(res)
			n++
		}
	}
	return n
}

// AddAllPrompts forwards every prompt of every connector to reg.
func (r *Registry) AddAllPrompts(reg PromptRegistrar) int {
	n := 0
	for _, e := range r.Connectors() {
		for _, p := range e.Connector.Prompts() {
			reg.RegisterPrompt(p)
			n++
		}
	}
	return n
}

// ConnectorForTool returns the identifier of the connector exposing toolName.
func (r *Registry) ConnectorForTool(toolName string) (string, bool) {
	for _, e := range r.Connectors() {
		for _, op := range e.Connector.Tools() {
			if op.Name == toolName {
				return e.ID, true
			}
		}
	}
	return "", false
}

// Close closes every connector in reverse activation order.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		if err := r.entries[i].Connector.CloseConnection(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", r.entries[i].ID, err))
		}
	}
	return errors.Join(errs...)
}
