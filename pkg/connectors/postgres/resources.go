package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/txn2/dbmesh/pkg/connector"
)

// Resource and prompt identifiers.
const (
	TableTemplateURI = "postgres://{database}/tables/{table}"
	PromptExplore    = "postgres_explore"
)

var tableTemplate = uritemplate.MustNew(TableTemplateURI)

// Resources returns the table description template.
func (c *Connector) Resources() []connector.Resource {
	return []connector.Resource{{
		URITemplate: TableTemplateURI,
		Name:        "PostgreSQL Table",
		Description: "Column description of a table in the connected database. Table may be qualified as schema.table",
		MIMEType:    "application/json",
		Read:        c.readTable,
	}}
}

// readTable serves postgres://{database}/tables/{table}. The database must be
// the one the connector is configured for.
func (c *Connector) readTable(ctx context.Context, uri string) (string, error) {
	vars, err := parseTemplateVars(tableTemplate, uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", connector.ErrResourceNotFound, err)
	}

	database, table := vars["database"], vars["table"]
	if database == "" || table == "" {
		return "", fmt.Errorf("%w: %s", connector.ErrResourceNotFound, uri)
	}
	if database != c.Config().Database {
		return "", fmt.Errorf("%w: database %q is not connected", connector.ErrResourceNotFound, database)
	}

	schema := ""
	if s, t, ok := strings.Cut(table, "."); ok {
		schema, table = s, t
	}

	desc, err := c.DescribeTable(ctx, schema, table)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("encoding table description: %w", err)
	}
	return string(data), nil
}

// parseTemplateVars extracts named variables from uri, or fails when it does
// not match tmpl.
func parseTemplateVars(tmpl *uritemplate.Template, uri string) (map[string]string, error) {
	match := tmpl.Match(uri)
	if match == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, tmpl.Raw())
	}
	vars := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		vars[name] = match.Get(name).String()
	}
	return vars, nil
}

// Prompts returns the exploration prompt.
func (c *Connector) Prompts() []connector.Prompt {
	return []connector.Prompt{{
		Name:        PromptExplore,
		Description: "Guide an assistant through exploring the connected PostgreSQL database",
		Arguments: []connector.PromptArgument{
			{Name: "schema", Description: "Schema to focus on (default public)"},
		},
		Render: c.renderExplore,
	}}
}

func (c *Connector) renderExplore(_ context.Context, args map[string]string) (string, error) {
	schema := args["schema"]
	if schema == "" {
		schema = defaultSchema
	}
	database := c.Config().Database

	var b strings.Builder
	fmt.Fprintf(&b, "You are exploring the PostgreSQL database %q, schema %q.\n\n", database, schema)
	fmt.Fprintf(&b, "1. Call %s with {\"schema\": %q} to see the available tables.\n", ToolListTables, schema)
	fmt.Fprintf(&b, "2. Call %s for the tables that look relevant.\n", ToolDescribeTable)
	fmt.Fprintf(&b, "3. Use %s to sample data. Queries run read-only, so keep them to SELECT and add a LIMIT.\n", ToolQuery)
	fmt.Fprintf(&b, "\nTable descriptions are also readable as resources at postgres://%s/tables/%s.<table>.\n", database, schema)
	return b.String(), nil
}
