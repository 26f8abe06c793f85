package mcpproxy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kurral/kurral/artifact"
)

// record forwards req to the configured upstream and captures the exchange.
// Unary responses are captured directly; SSE responses are streamed to the
// client while simultaneously accumulated into an MCPToolCall, finalized on
// the terminal "complete" event.
func (s *Server) record(w http.ResponseWriter, r *http.Request, req Request) {
	body, err := json.Marshal(req)
	if err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInternalError, err.Error()))
		return
	}
	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInternalError, err.Error()))
		return
	}
	upReq.Header.Set("Content-Type", "application/json")
	if accept := r.Header.Get("Accept"); accept != "" {
		upReq.Header.Set("Accept", accept)
	} else {
		upReq.Header.Set("Accept", "application/json, text/event-stream")
	}

	start := time.Now()
	resp, err := s.cfg.Upstream.Do(upReq)
	if err != nil {
		if errIsTimeout(err) {
			writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeUpstreamTimeout, ErrUpstreamTimeout.Error()))
			return
		}
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInternalError, fmt.Sprintf("upstream: %v", err)))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "text/event-stream") {
		s.recordSSE(w, resp.Body, req, start)
		return
	}
	s.recordUnary(w, resp.Body, req, start)
}

func (s *Server) recordUnary(w http.ResponseWriter, upstreamBody io.Reader, req Request, start time.Time) {
	raw, err := io.ReadAll(upstreamBody)
	if err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInternalError, err.Error()))
		return
	}
	var rpcResp Response
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeParseError, "invalid upstream response: "+err.Error()))
		return
	}
	rpcResp.ID = req.ID
	writeJSONRPC(w, http.StatusOK, rpcResp)

	if req.Method == methodToolsCall && rpcResp.Error == nil {
		s.captureToolCall(req, rpcResp.Result, false, nil, start, time.Now())
	}
}

func (s *Server) recordSSE(w http.ResponseWriter, upstreamBody io.Reader, req Request, start time.Time) {
	sw, err := newSSEWriter(w)
	if err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInternalError, err.Error()))
		return
	}

	type read struct {
		ev  sseEvent
		err error
	}
	ch := make(chan read, s.cfg.SSEWindow)
	go func() {
		defer close(ch)
		reader := bufio.NewReader(upstreamBody)
		for {
			if s.cfg.ForwardLimiter != nil {
				_ = s.cfg.ForwardLimiter.Wait(context.Background())
			}
			ev, err := readSSEEvent(reader)
			ch <- read{ev: ev, err: err}
			if err != nil {
				return
			}
			if ev.Type == "complete" || ev.Type == "close" {
				return
			}
		}
	}()

	var events []artifact.MCPEvent
	var finalResult json.RawMessage
	for {
		var item read
		var ok bool
		select {
		case item, ok = <-ch:
			if !ok {
				goto done
			}
		case <-time.After(s.cfg.SSEIdleTimeout):
			_ = sw.Write("error", mustJSON(RPCError{Code: CodeUpstreamTimeout, Message: ErrUpstreamTimeout.Error()}))
			goto done
		}
		if item.err != nil {
			if item.err != io.EOF {
				_ = sw.Write("error", mustJSON(RPCError{Code: CodeInternalError, Message: item.err.Error()}))
			}
			goto done
		}
		_ = sw.Write(item.ev.Type, item.ev.Data)
		events = append(events, artifact.MCPEvent{
			Type:                item.ev.Type,
			Data:                item.ev.Data,
			RelativeTimestampMS: time.Since(start).Milliseconds(),
		})
		if item.ev.Type == "complete" {
			finalResult = extractComplete(item.ev.Data)
			goto done
		}
	}
done:
	if req.Method == methodToolsCall && finalResult != nil {
		s.captureToolCall(req, finalResult, true, events, start, time.Now())
	}
}

// extractComplete pulls the "result" field out of a complete event's data
// payload per spec §4.7's REPLAY-mode extraction rule, reused here so
// RECORD mode stores the same final result either transport produces.
func extractComplete(data json.RawMessage) json.RawMessage {
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &env); err != nil || len(env.Result) == 0 {
		return data
	}
	return env.Result
}

func (s *Server) captureToolCall(req Request, result json.RawMessage, wasSSE bool, events []artifact.MCPEvent, start, end time.Time) {
	var params toolCallParams
	_ = json.Unmarshal(req.Params, &params)

	status := artifact.StatusOK
	outputHash, err := artifact.Hash(result)
	if err != nil {
		outputHash = ""
	}

	tc := artifact.MCPToolCall{
		ToolCall: artifact.ToolCall{
			Name:       params.Name,
			Namespace:  s.cfg.ServerName,
			Input:      params.Arguments,
			Output:     result,
			Effect:     artifact.EffectMCP,
			LatencyMS:  end.Sub(start).Milliseconds(),
			Status:     status,
			OutputHash: outputHash,
			StartedAt:  start,
			EndedAt:    end,
		},
		RequestID:  string(req.ID),
		Method:     req.Method,
		ServerName: s.cfg.ServerName,
		WasSSE:     wasSSE,
		Events:     events,
	}
	if key, err := artifact.ToolCacheKey(params.Name, params.Arguments); err == nil {
		tc.CacheKey = key
	}
	if wasSSE {
		tc.SSESequence = len(events)
	}

	s.cfg.Sink.RecordMCPToolCall(tc)
	s.counter.Add(1)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func errIsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
