// Package mcpproxy implements the JSON-RPC 2.0 + Server-Sent-Event
// record/replay proxy (spec.md §4.7, component C7) that sits between an
// agent process and an upstream MCP tool server. In RECORD mode it forwards
// every request to the upstream and captures the exchange into an
// artifact.MCPToolCall; in REPLAY mode it answers from a previously
// captured artifact without touching the network.
package mcpproxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// methodToolsCall is the one JSON-RPC method Kurral captures/replays as a
// tool invocation; other methods (e.g. "initialize") are forwarded in
// RECORD mode but never captured, since they carry no (tool_name, input)
// pair to key a cache entry on.
const methodToolsCall = "tools/call"

// Server is an http.Handler implementing the MCP proxy's wire contract.
type Server struct {
	cfg     Config
	router  chi.Router
	counter atomic.Int64
}

// NewServer validates cfg, applies defaults, and returns a ready Server.
func NewServer(cfg Config) (*Server, error) {
	cfg.setDefaults()
	switch cfg.Mode {
	case ModeRecord:
		if cfg.UpstreamURL == "" {
			return nil, errConfig("record mode requires UpstreamURL")
		}
		if cfg.Sink == nil {
			return nil, errConfig("record mode requires Sink")
		}
		cfg.Upstream = timeoutUpstream{inner: cfg.Upstream, timeout: cfg.RequestTimeout}
	case ModeReplay:
		if cfg.Index == nil {
			return nil, errConfig("replay mode requires Index")
		}
	default:
		return nil, errConfig("unknown mode %q", cfg.Mode)
	}

	s := &Server{cfg: cfg}
	r := chi.NewRouter()
	r.Post("/", s.handleRPC)
	r.Post("/mcp", s.handleRPC)
	r.Get("/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(nil, CodeParseError, "parse error: "+err.Error()))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInvalidRequest, "invalid request"))
		return
	}

	switch s.cfg.Mode {
	case ModeRecord:
		s.record(w, r, req)
	case ModeReplay:
		s.replay(w, r, req)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           string(s.cfg.Mode),
		"captured_calls": s.counter.Load(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONRPC always answers with a 200 and a valid JSON-RPC envelope per
// spec §7: the proxy never surfaces a protocol-layer error as a bare HTTP
// 500.
func writeJSONRPC(w http.ResponseWriter, status int, resp Response) {
	resp.JSONRPC = "2.0"
	writeJSON(w, status, resp)
}

func errConfig(format string, args ...any) error {
	return fmt.Errorf("mcpproxy: "+format, args...)
}
