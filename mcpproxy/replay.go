package mcpproxy

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kurral/kurral/artifact"
)

// replay answers req entirely from s.cfg.Index, never touching the network
// unless FallthroughOnMiss is set and the call is missing.
func (s *Server) replay(w http.ResponseWriter, r *http.Request, req Request) {
	if req.Method != methodToolsCall {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeMethodNotFound, "replay only serves tools/call"))
		return
	}
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInvalidParams, err.Error()))
		return
	}

	tc, ok, err := s.cfg.Index.Lookup(params.Name, params.Arguments)
	if err != nil {
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeInvalidParams, err.Error()))
		return
	}
	if !ok {
		if s.cfg.FallthroughOnMiss && s.cfg.Upstream != nil && s.cfg.UpstreamURL != "" {
			s.record(w, r, req)
			return
		}
		writeJSONRPC(w, http.StatusOK, errorResponse(req.ID, CodeReplayMiss, "no captured call matches this request"))
		return
	}

	s.counter.Add(1)
	if !tc.WasSSE {
		writeJSONRPC(w, http.StatusOK, Response{ID: req.ID, Result: tc.Output})
		return
	}
	s.replaySSE(w, tc)
}

// replaySSE streams tc's originally captured events back to the client in
// order, honoring Config.ReplaySpeed: real-time reproduces the original
// inter-event gaps, fast-forward delivers every event immediately.
func (s *Server) replaySSE(w http.ResponseWriter, tc artifact.MCPToolCall) {
	sw, err := newSSEWriter(w)
	if err != nil {
		return
	}
	var prevMS int64
	for _, ev := range tc.Events {
		if s.cfg.ReplaySpeed == ReplaySpeedRealTime {
			if gap := ev.RelativeTimestampMS - prevMS; gap > 0 {
				time.Sleep(time.Duration(gap) * time.Millisecond)
			}
			prevMS = ev.RelativeTimestampMS
		}
		_ = sw.Write(ev.Type, ev.Data)
	}
}
