// Package health tracks server readiness and serves the HTTP probe endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Probe paths.
const (
	LivenessPath  = "/healthz"
	ReadinessPath = "/readyz"
)

const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// Checker tracks whether connectors are connected and the server is
// accepting requests. It is safe for concurrent use.
type Checker struct {
	state      atomic.Int32
	connectors atomic.Pointer[[]string]
}

// NewChecker creates a Checker in the starting state.
func NewChecker() *Checker {
	return &Checker{}
}

// SetReady marks the server ready with the given active connectors.
func (c *Checker) SetReady(connectors ...string) {
	active := append([]string{}, connectors...)
	c.connectors.Store(&active)
	c.state.Store(stateReady)
}

// SetDraining marks the server as shutting down.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady reports whether the server is ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns "starting", "ready" or "draining".
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

// Connectors returns the connectors reported by the last SetReady.
func (c *Checker) Connectors() []string {
	p := c.connectors.Load()
	if p == nil {
		return []string{}
	}
	return append([]string{}, (*p)...)
}

type healthResponse struct {
	Status     string   `json:"status"`
	Connectors []string `json:"connectors,omitempty"`
}

// LivenessHandler always responds 200 while the process is up.
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler responds 200 with the active connectors when ready and
// 503 otherwise.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !c.IsReady() {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: c.State()})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: c.State(), Connectors: c.Connectors()})
	}
}

// Mount registers both probes on mux.
func (c *Checker) Mount(mux *http.ServeMux) {
	mux.Handle("GET "+LivenessPath, c.LivenessHandler())
	mux.Handle("GET "+ReadinessPath, c.ReadinessHandler())
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
