package registry

import (
	"github.com/txn2/dbmesh/pkg/connector"
	"github.com/txn2/dbmesh/pkg/connectors/example"
	"github.com/txn2/dbmesh/pkg/connectors/postgres"
)

// Connector identifiers known to this build.
const (
	KindExample  = "example"
	KindPostgres = "postgres"
)

// DefaultEnabled lists the connectors activated when nothing is configured.
var DefaultEnabled = []string{KindExample}

// Builtin returns the compiled-in identifier to factory mapping.
func Builtin() map[string]Factory {
	return map[string]Factory{
		KindExample:  ExampleFactory,
		KindPostgres: PostgresFactory,
	}
}

// ExampleFactory creates the demonstration connector.
func ExampleFactory() connector.Connector {
	return example.New()
}

// PostgresFactory creates a PostgreSQL connector with default parameters.
func PostgresFactory() connector.Connector {
	return postgres.New()
}
