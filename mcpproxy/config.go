package mcpproxy

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/telemetry"
)

// Mode selects whether the proxy forwards-and-captures (RECORD) or answers
// from a previously captured artifact (REPLAY).
type Mode string

const (
	ModeRecord Mode = "record"
	ModeReplay Mode = "replay"
)

// ReplaySpeed controls how quickly a REPLAY-mode SSE stream is delivered to
// the client relative to how it was originally observed.
type ReplaySpeed string

const (
	// ReplaySpeedRealTime reproduces the original inter-event delays.
	ReplaySpeedRealTime ReplaySpeed = "real-time"
	// ReplaySpeedFastForward delivers every event immediately.
	ReplaySpeedFastForward ReplaySpeed = "fast-forward"
)

// Sink receives finalized MCP tool calls captured in RECORD mode. A sealed-
// while-open *artifact.Artifact satisfies this directly via its
// RecordMCPToolCall method.
type Sink interface {
	RecordMCPToolCall(tc artifact.MCPToolCall)
}

// Upstream forwards an HTTP request to the real MCP server. The default
// implementation wraps http.Client; tests supply a stub.
type Upstream interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Server.
type Config struct {
	// Mode selects RECORD or REPLAY behavior. Required.
	Mode Mode
	// UpstreamURL is the address the proxy forwards to in RECORD mode.
	// Required when Mode is ModeRecord.
	UpstreamURL string
	// Upstream overrides the HTTP client used to reach UpstreamURL. A nil
	// value uses an *http.Client with RequestTimeout applied per call.
	Upstream Upstream
	// Sink receives captured calls in RECORD mode. Required when Mode is
	// ModeRecord.
	Sink Sink
	// Index answers lookups in REPLAY mode. Required when Mode is
	// ModeReplay.
	Index *ReplayIndex
	// ServerName tags captured/replayed calls with the logical upstream
	// server name.
	ServerName string
	// SSEWindow bounds the number of in-flight buffered SSE events between
	// the upstream-reading producer and the client-writing consumer.
	// Defaults to 64 per spec §5.
	SSEWindow int
	// RequestTimeout bounds a single upstream request/response round trip.
	// Defaults to 30s.
	RequestTimeout time.Duration
	// SSEIdleTimeout bounds the gap between two consecutive SSE events from
	// the upstream before the proxy gives up. Defaults to 10s.
	SSEIdleTimeout time.Duration
	// ReplaySpeed controls REPLAY-mode SSE pacing. Defaults to
	// ReplaySpeedFastForward.
	ReplaySpeed ReplaySpeed
	// FallthroughOnMiss forwards to UpstreamURL on a REPLAY cache miss
	// instead of returning a JSON-RPC "Replay miss" error.
	FallthroughOnMiss bool
	// ForwardLimiter throttles how fast RECORD mode reads upstream SSE
	// events into the bounded per-request channel (SSEWindow); it waits
	// before every read whether or not the channel is full. Backpressure
	// from a slow client comes from the bounded channel itself. A nil value
	// reads as fast as the upstream produces events.
	ForwardLimiter *rate.Limiter
	// Logger receives structured diagnostics. A nil Logger uses
	// telemetry.NoopLogger.
	Logger telemetry.Logger
}

func (c *Config) setDefaults() {
	if c.SSEWindow <= 0 {
		c.SSEWindow = 64
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.SSEIdleTimeout <= 0 {
		c.SSEIdleTimeout = 10 * time.Second
	}
	if c.ReplaySpeed == "" {
		c.ReplaySpeed = ReplaySpeedFastForward
	}
	if c.Logger == nil {
		c.Logger = telemetry.NoopLogger{}
	}
	if c.Upstream == nil {
		c.Upstream = &http.Client{Timeout: c.RequestTimeout}
	}
}

type timeoutUpstream struct {
	inner   Upstream
	timeout time.Duration
}

func (t timeoutUpstream) Do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)
	resp, err := t.inner.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context once the body is closed, so
// the deadline covers reading the body and not only the response headers.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
