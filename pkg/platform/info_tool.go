package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/txn2/dbmesh/internal/server"
)

// Info describes the running server.
type Info struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Transport  string   `json:"transport"`
	Endpoint   string   `json:"endpoint,omitempty"`
	Connectors []string `json:"connectors"`
	Ready      bool     `json:"ready"`
}

// infoToolDescription builds the dbmesh_info description from configuration.
func (p *Platform) infoToolDescription() string {
	base := "Get information about this database MCP server"
	if p.config.Server.Name != "" && p.config.Server.Name != "dbmesh" {
		base = fmt.Sprintf("Get information about %s", p.config.Server.Name)
	}
	return fmt.Sprintf("%s, including its version and active connectors (%s). "+
		"Call this first to learn which databases are reachable.",
		base, strings.Join(p.config.Connectors.Enabled, ", "))
}

func (p *Platform) handleInfo(_ context.Context, _ json.RawMessage) (any, error) {
	info := Info{
		Name:       p.config.Server.Name,
		Version:    server.Version,
		Transport:  p.config.Server.Transport,
		Connectors: p.registry.Enabled(),
		Ready:      p.health.IsReady(),
	}
	if p.config.Server.Transport == TransportHTTP {
		info.Endpoint = "http://" + p.config.Address() + p.config.Server.Path
	}
	return info, nil
}
