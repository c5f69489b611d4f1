package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbmesh/internal/server"
)

func TestHandleInfo(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantName     string
		wantEndpoint string
	}{
		{
			name:         "http transport reports endpoint",
			modify:       func(*Config) {},
			wantName:     "dbmesh",
			wantEndpoint: "http://0.0.0.0:8000/mcp",
		},
		{
			name: "custom address and path",
			modify: func(c *Config) {
				c.Server.Name = "sales-db"
				c.Server.Host = "127.0.0.1"
				c.Server.Port = 9100
				c.Server.Path = "/rpc"
			},
			wantName:     "sales-db",
			wantEndpoint: "http://127.0.0.1:9100/rpc",
		},
		{
			name:         "stdio has no endpoint",
			modify:       func(c *Config) { c.Server.Transport = TransportStdio },
			wantName:     "dbmesh",
			wantEndpoint: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)
			p := newTestPlatform(t, cfg)
			session, cleanup := connectTestClient(t, p)
			defer cleanup()

			var info Info
			callJSON(t, session, ToolInfo, &info)

			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, server.Version, info.Version)
			assert.Equal(t, cfg.Server.Transport, info.Transport)
			assert.Equal(t, tt.wantEndpoint, info.Endpoint)
			assert.Equal(t, []string{"example"}, info.Connectors)
			assert.False(t, info.Ready)
		})
	}
}

func TestHandleInfo_ReadyAfterStart(t *testing.T) {
	p := newTestPlatform(t, testConfig(t))
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	defer func() { _ = p.Stop(ctx) }()

	raw, err := p.handleInfo(ctx, nil)
	require.NoError(t, err)
	info, ok := raw.(Info)
	require.True(t, ok)
	assert.True(t, info.Ready)
}

func TestInfoToolDescription(t *testing.T) {
	t.Run("default name", func(t *testing.T) {
		p := newTestPlatform(t, testConfig(t))
		desc := p.infoToolDescription()
		assert.Contains(t, desc, "this database MCP server")
		assert.Contains(t, desc, "(example)")
	})

	t.Run("custom name lists connectors", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.Name = "warehouse"
		cfg.Connectors.Enabled = []string{"example", "postgres"}
		p := newTestPlatform(t, cfg)
		desc := p.infoToolDescription()
		assert.Contains(t, desc, "Get information about warehouse")
		assert.Contains(t, desc, "(example, postgres)")
	})
}
