package mcpproxy

import "errors"

// ErrUpstreamTimeout indicates the upstream server exceeded
// Config.RequestTimeout for a single request.
var ErrUpstreamTimeout = errors.New("mcpproxy: upstream timeout")

// ErrProtocolError indicates a malformed JSON-RPC request or an SSE stream
// that could not be parsed.
var ErrProtocolError = errors.New("mcpproxy: protocol error")

// ErrReplayMiss indicates REPLAY mode found no captured call matching the
// incoming request and FallthroughOnMiss is disabled.
var ErrReplayMiss = errors.New("mcpproxy: replay miss")
