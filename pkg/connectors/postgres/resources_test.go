package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbmesh/pkg/connector"
)

func TestResources_Definition(t *testing.T) {
	c := New(WithConfig(DefaultConfig()))
	resources := c.Resources()
	require.Len(t, resources, 1)
	assert.True(t, resources[0].IsTemplate())
	assert.Equal(t, TableTemplateURI, resources[0].URITemplate)
	assert.Equal(t, "application/json", resources[0].MIMEType)
}

func TestReadTable(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		schema string
		table  string
	}{
		{name: "default schema", uri: "postgres://dbmesh/tables/users", schema: "public", table: "users"},
		{name: "qualified table", uri: "postgres://dbmesh/tables/sales.orders", schema: "sales", table: "orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newMockConnector(t)
			mock.ExpectQuery(regexp.QuoteMeta(describeSQL)).
				WithArgs(tt.table, tt.schema).
				WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}).
					AddRow("id", "integer", "NO", nil))

			text, err := c.Resources()[0].Read(context.Background(), tt.uri)
			require.NoError(t, err)

			var desc TableDescription
			require.NoError(t, json.Unmarshal([]byte(text), &desc))
			assert.Equal(t, tt.schema, desc.Schema)
			assert.Equal(t, tt.table, desc.Table)
			assert.Len(t, desc.Columns, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReadTable_NotFound(t *testing.T) {
	c, _ := newMockConnector(t)
	read := c.Resources()[0].Read

	for _, uri := range []string{
		"postgres://otherdb/tables/users",
		"greeting://users",
		"postgres://dbmesh/views/users",
	} {
		t.Run(uri, func(t *testing.T) {
			_, err := read(context.Background(), uri)
			assert.ErrorIs(t, err, connector.ErrResourceNotFound)
		})
	}
}

func TestPrompts(t *testing.T) {
	c := New(WithConfig(DefaultConfig()))
	prompts := c.Prompts()
	require.Len(t, prompts, 1)

	p := prompts[0]
	assert.Equal(t, PromptExplore, p.Name)
	require.Len(t, p.Arguments, 1)
	assert.Equal(t, "schema", p.Arguments[0].Name)
	assert.False(t, p.Arguments[0].Required)

	text, err := p.Render(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, text, `"dbmesh"`)
	assert.Contains(t, text, `"public"`)
	assert.Contains(t, text, ToolListTables)

	text, err = p.Render(context.Background(), map[string]string{"schema": "sales"})
	require.NoError(t, err)
	assert.Contains(t, text, `"sales"`)
}
