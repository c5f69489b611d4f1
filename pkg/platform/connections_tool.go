package platform

import (
	"context"
	"encoding/json"

	"github.com/txn2/dbmesh/pkg/connector"
	"github.com/txn2/dbmesh/pkg/credentials"
)

// Platform tool names.
const (
	ToolListConnectors = "dbmesh_list_connectors"
	ToolCredentials    = "dbmesh_credentials"
	ToolInfo           = "dbmesh_info"
)

var noArgsSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// connectorEntry describes a single active connector.
type connectorEntry struct {
	ID        string   `json:"id"`
	Tools     []string `json:"tools"`
	Resources []string `json:"resources"`
	Prompts   []string `json:"prompts"`
}

// listConnectorsOutput is the response of dbmesh_list_connectors.
type listConnectorsOutput struct {
	Connectors []connectorEntry `json:"connectors"`
	Count      int              `json:"count"`
}

// credentialsOutput is the response of dbmesh_credentials.
type credentialsOutput struct {
	Path        string          `json:"path"`
	Credentials credentials.Set `json:"credentials"`
}

// platformTools returns the tools the platform adds next to connector tools.
func (p *Platform) platformTools() []connector.Operation {
	return []connector.Operation{
		{
			Name:        ToolListConnectors,
			Description: "List the active database connectors and the tools, resources and prompts each one provides.",
			InputSchema: noArgsSchema,
			ReadOnly:    true,
			Handler:     p.handleListConnectors,
		},
		{
			Name:        ToolCredentials,
			Description: "Show the stored database connection parameters with the password redacted.",
			InputSchema: noArgsSchema,
			ReadOnly:    true,
			Handler:     p.handleCredentials,
		},
		{
			Name:        ToolInfo,
			Description: p.infoToolDescription(),
			InputSchema: noArgsSchema,
			ReadOnly:    true,
			Handler:     p.handleInfo,
		},
	}
}

func (p *Platform) handleListConnectors(_ context.Context, _ json.RawMessage) (any, error) {
	active := p.registry.Connectors()

	entries := make([]connectorEntry, 0, len(active))
	for _, e := range active {
		entry := connectorEntry{
			ID:        e.ID,
			Tools:     []string{},
			Resources: []string{},
			Prompts:   []string{},
		}
		for _, op := range e.Connector.Tools() {
			entry.Tools = append(entry.Tools, op.Name)
		}
		for _, res := range e.Connector.Resources() {
			uri := res.URI
			if res.IsTemplate() {
				uri = res.URITemplate
			}
			entry.Resources = append(entry.Resources, uri)
		}
		for _, pr := range e.Connector.Prompts() {
			entry.Prompts = append(entry.Prompts, pr.Name)
		}
		entries = append(entries, entry)
	}

	return listConnectorsOutput{
		Connectors: entries,
		Count:      len(entries),
	}, nil
}

func (p *Platform) handleCredentials(_ context.Context, _ json.RawMessage) (any, error) {
	return credentialsOutput{
		Path:        p.store.Path(),
		Credentials: p.store.Redacted(),
	}, nil
}
