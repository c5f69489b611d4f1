package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/dbmesh/pkg/connector"
)

// Tool names.
const (
	ToolQuery         = "postgres_query"
	ToolListTables    = "postgres_list_tables"
	ToolDescribeTable = "postgres_describe_table"
)

const defaultSchema = "public"

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var systemSchemas = []string{"pg_catalog", "information_schema"}

var (
	querySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"sql": {"type": "string", "description": "Single SQL statement to run inside a read-only transaction"},
		"limit": {"type": "integer", "description": "Maximum rows to return"}
	},
	"required": ["sql"]
}`)
	listTablesSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"schema": {"type": "string", "description": "Restrict to one schema; system schemas are excluded by default"}
	}
}`)
	describeTableSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"schema": {"type": "string", "description": "Schema name (default public)"},
		"table": {"type": "string", "description": "Table name"}
	},
	"required": ["table"]
}`)
)

// QueryInput holds postgres_query arguments.
type QueryInput struct {
	SQL   string `json:"sql"`
	Limit int    `json:"limit,omitempty"`
}

// QueryResult is returned by postgres_query.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// ListTablesInput holds postgres_list_tables arguments.
type ListTablesInput struct {
	Schema string `json:"schema,omitempty"`
}

// Table identifies a relation.
type Table struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// DescribeTableInput holds postgres_describe_table arguments.
type DescribeTableInput struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table"`
}

// Column describes a table column.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// TableDescription is returned by postgres_describe_table.
type TableDescription struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// Tools returns the query and catalog operations.
func (c *Connector) Tools() []connector.Operation {
	return []connector.Operation{
		{
			Name:        ToolQuery,
			Description: "Run a read-only SQL query against PostgreSQL and return columns and rows",
			InputSchema: querySchema,
			ReadOnly:    true,
			Handler:     c.handleQuery,
		},
		{
			Name:        ToolListTables,
			Description: "List tables and views in the PostgreSQL database",
			InputSchema: listTablesSchema,
			ReadOnly:    true,
			Handler:     c.handleListTables,
		},
		{
			Name:        ToolDescribeTable,
			Description: "Describe the columns of a PostgreSQL table",
			InputSchema: describeTableSchema,
			ReadOnly:    true,
			Handler:     c.handleDescribeTable,
		},
	}
}

func (c *Connector) handleQuery(ctx context.Context, args json.RawMessage) (any, error) {
	var in QueryInput
	if err := connector.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return c.Query(ctx, in)
}

func (c *Connector) handleListTables(ctx context.Context, args json.RawMessage) (any, error) {
	var in ListTablesInput
	if err := connector.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return c.ListTables(ctx, in.Schema)
}

func (c *Connector) handleDescribeTable(ctx context.Context, args json.RawMessage) (any, error) {
	var in DescribeTableInput
	if err := connector.DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return c.DescribeTable(ctx, in.Schema, in.Table)
}

// Query runs a single statement inside a read-only transaction that is always
// rolled back. Write and transaction control statements are rejected before
// reaching the database.
func (c *Connector) Query(ctx context.Context, in QueryInput) (*QueryResult, error) {
	if strings.TrimSpace(in.SQL) == "" {
		return nil, errors.New("sql is required")
	}
	if isWriteQuery(in.SQL) {
		return nil, ErrWriteQuery
	}
	db, err := c.handle()
	if err != nil {
		return nil, err
	}

	limit := c.maxRows
	if in.Limit > 0 && in.Limit < limit {
		limit = in.Limit
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Prepared statements use the extended protocol, which accepts a single
	// command only.
	stmt, err := tx.PrepareContext(ctx, in.SQL)
	if err != nil {
		return nil, fmt.Errorf("preparing query: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}
		row, err := scanRow(rows, len(columns))
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

// ListTables lists relations in schema, or in every non-system schema when
// schema is empty.
func (c *Connector) ListTables(ctx context.Context, schema string) ([]Table, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}

	builder := psq.Select("table_schema", "table_name", "table_type").
		From("information_schema.tables").
		OrderBy("table_schema", "table_name")
	if schema != "" {
		builder = builder.Where(sq.Eq{"table_schema": schema})
	} else {
		builder = builder.Where(sq.NotEq{"table_schema": systemSchemas})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []Table{}
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the columns of schema.table in ordinal order. An
// empty schema means public. A table with no visible columns is reported as
// not found.
func (c *Connector) DescribeTable(ctx context.Context, schema, table string) (*TableDescription, error) {
	if table == "" {
		return nil, errors.New("table is required")
	}
	if schema == "" {
		schema = defaultSchema
	}
	db, err := c.handle()
	if err != nil {
		return nil, err
	}

	query, args, err := psq.Select("column_name", "data_type", "is_nullable", "column_default").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table}).
		OrderBy("ordinal_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("describing table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	desc := &TableDescription{Schema: schema, Table: table, Columns: []Column{}}
	for rows.Next() {
		var (
			col      Column
			nullable string
			def      sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &def); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.Nullable = nullable == "YES"
		if def.Valid {
			col.Default = &def.String
		}
		desc.Columns = append(desc.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	if len(desc.Columns) == 0 {
		return nil, fmt.Errorf("table %s.%s: %w", schema, table, connector.ErrResourceNotFound)
	}
	return desc, nil
}
