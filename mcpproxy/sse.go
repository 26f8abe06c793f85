package mcpproxy

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sseEvent is one parsed "event: <name>\ndata: <json>\n\n" record.
type sseEvent struct {
	Type string
	Data json.RawMessage
}

// readSSEEvent scans one event off reader, adapted from
// runtime/mcp/ssecaller.go's client-side reader for server-side use: it
// accumulates "event:"/"data:" lines until a blank line terminates the
// record, skipping comment lines ("ignoreprefix :").
func readSSEEvent(reader *bufio.Reader) (sseEvent, error) {
	var event string
	var data []byte
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return sseEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if event == "" && len(data) == 0 {
				continue
			}
			return sseEvent{Type: event, Data: json.RawMessage(data)}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if after, ok := strings.CutPrefix(line, "event:"); ok {
			event = strings.TrimSpace(after)
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			chunk := strings.TrimPrefix(after, " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
			continue
		}
	}
}

// sseWriter serializes events to an http.ResponseWriter as they are
// produced, flushing after every record so a slow client sees partial
// progress rather than a buffered burst at the end.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("mcpproxy: response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) Write(event string, data json.RawMessage) error {
	var buf bytes.Buffer
	if event != "" {
		fmt.Fprintf(&buf, "event: %s\n", event)
	}
	lines := bytes.Split(data, []byte("\n"))
	for _, l := range lines {
		buf.WriteString("data: ")
		buf.Write(l)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	if _, err := io.Copy(s.w, &buf); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
