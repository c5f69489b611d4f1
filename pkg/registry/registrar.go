// Package registry activates database connectors and forwards their
// operations, resources and prompts to a registration boundary.
package registry

import (
	"github.com/txn2/dbmesh/pkg/connector"
	"github.com/txn2/dbmesh/pkg/credentials"
)

// Factory creates a connector. Factories take no arguments; connection
// parameters arrive later through connector.Configurable.
type Factory func() connector.Connector

// ToolRegistrar receives operations exposed by connectors.
type ToolRegistrar interface {
	RegisterTool(op connector.Operation)
}

// ResourceRegistrar receives resources exposed by connectors.
type ResourceRegistrar interface {
	RegisterResource(res connector.Resource)
}

// PromptRegistrar receives prompts exposed by connectors.
type PromptRegistrar interface {
	RegisterPrompt(p connector.Prompt)
}

// CredentialSource supplies connection parameters to configurable connectors.
type CredentialSource interface {
	Credentials() credentials.Set
}

// Entry pairs an activated connector with the identifier it was enabled as.
type Entry struct {
	ID        string
	Connector connector.Connector
}
