package server

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/dbmesh/pkg/health"
)

// DefaultPath is the default streamable HTTP endpoint.
const DefaultPath = "/mcp"

// NewHTTPHandler serves srv over streamable HTTP at path and mounts the
// health probes next to it.
func NewHTTPHandler(srv *mcp.Server, path string, checker *health.Checker) http.Handler {
	if path == "" {
		path = DefaultPath
	}

	mux := http.NewServeMux()
	mux.Handle(path, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil))
	if checker != nil {
		checker.Mount(mux)
	}
	return mux
}
