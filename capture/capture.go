// Package capture wraps a running agent, recording every tool call, prompt,
// and streamed fragment into an artifact.Artifact, then seals and persists
// it. It has two observation channels: the in-process Recorder an agent
// reports through, and a background worker that enriches the artifact from
// an external trace service after the agent returns.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
	"github.com/kurral/kurral/telemetry"
)

// EventSink is the callback interface for capture events from an agent run.
// Neither capture path in this package uses it: Recorder records tool calls
// and fragments directly into the artifact, and background enrichment merges
// an Enrichment value without emitting events.
type EventSink interface {
	OnToolStart(ctx context.Context, tc artifact.ToolCall)
	OnToolEnd(ctx context.Context, index int, output []byte, endedAt time.Time)
	OnToolError(ctx context.Context, index int, errText string, endedAt time.Time)
	OnStreamFragment(ctx context.Context, fragment string, relativeMS int64)
	OnComplete(ctx context.Context)
}

// AgentFunc is a user-supplied agent callable. It receives a Recorder to
// report tool calls and stream fragments through, and returns the agent's
// final output text (or an error).
type AgentFunc func(ctx context.Context, rec *Recorder) (string, error)

// TraceService is the external trace-service capability consulted by
// background enrichment. A nil TraceService in Options disables enrichment.
type TraceService interface {
	// FetchTrace returns enrichment data for runID once the external
	// service has indexed it, or an error (including context deadline
	// exceeded) if it has not yet.
	FetchTrace(ctx context.Context, runID string) (Enrichment, error)
}

// Enrichment is the subset of artifact fields an external trace service can
// supply after the fact.
type Enrichment struct {
	GraphVersion *artifact.GraphVersion
	Tags         map[string]string
}

// Options configures one Capture call.
type Options struct {
	Store           store.Store
	Scorer          artifact.Scorer
	Trace           TraceService
	Logger          telemetry.Logger
	Tracer          telemetry.Tracer
	EnrichSettleWait time.Duration
	EnrichDeadline   time.Duration
}

const (
	defaultEnrichSettleWait = 2 * time.Second
	defaultEnrichDeadline   = 30 * time.Second
)

// Capture runs fn as a scoped capture around one agent execution, producing
// a sealed, persisted artifact. On agent error, the artifact is still
// sealed with Error set and returned alongside the error.
func Capture(ctx context.Context, id, runID, tenantID string, fn AgentFunc, opts Options) (artifact.SealedArtifact, error) {
	start := time.Now()
	a := artifact.NewOpen(id, runID, tenantID)
	rec := &Recorder{artifact: a, start: start}

	var agentErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				agentErr = fmt.Errorf("capture: agent panicked: %v", r)
			}
		}()
		output, err := fn(ctx, rec)
		if err != nil {
			agentErr = err
		}
		a.Outputs.FullText = output
	}()

	if ctx.Err() != nil && agentErr == nil {
		agentErr = ctx.Err()
	}
	if agentErr != nil {
		a.Error = agentErr.Error()
	}
	a.DurationMS = time.Since(start).Milliseconds()

	sealed, err := artifact.Seal(a, opts.Scorer)
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("capture: seal: %w", err)
	}

	enriching := opts.Trace != nil && opts.Store != nil && ctx.Err() == nil
	if opts.Store != nil {
		if enriching {
			// Persisted invisibly until the background enrichment worker
			// promotes it, so a reader never observes an artifact that
			// later changes underneath it once enrichment lands.
			if err := opts.Store.PutPartial(ctx, sealed); err != nil {
				return sealed, fmt.Errorf("capture: persist: %w", err)
			}
		} else {
			if err := opts.Store.Put(ctx, sealed); err != nil {
				return sealed, fmt.Errorf("capture: persist: %w", err)
			}
		}
	}

	if enriching {
		go enrich(sealed, runID, opts)
	}

	return sealed, agentErr
}

// Recorder is the capture-time handle an AgentFunc uses to report tool
// calls and stream fragments. It is not safe for concurrent use by
// multiple goroutines without external synchronization; agents that run
// tools concurrently should serialize calls into the Recorder.
type Recorder struct {
	artifact *artifact.Artifact
	start    time.Time
}

// StartToolCall records the start of a tool invocation and returns a handle
// used to report its completion.
func (r *Recorder) StartToolCall(name string, input []byte, effect artifact.EffectType) *ToolCallHandle {
	return &ToolCallHandle{rec: r, name: name, input: input, effect: effect, startedAt: time.Now().UTC()}
}

// RecordFragment appends a streamed output fragment at the current
// relative timestamp.
func (r *Recorder) RecordFragment(fragment string) {
	r.artifact.RecordStreamFragment(fragment, time.Since(r.start).Milliseconds())
}

// SetGraph fingerprints the agent's graph structure and declared tool schema
// set and attaches it to the artifact being captured (spec step 2: "extract
// graph version"). Called at most once per capture; a second call overwrites
// the first.
func (r *Recorder) SetGraph(nodes, edges []string, tools []artifact.ToolSchema) error {
	gv, err := artifact.BuildGraphVersion(nodes, edges, tools)
	if err != nil {
		return fmt.Errorf("capture: set graph: %w", err)
	}
	r.artifact.GraphVersion = gv
	return nil
}

// ToolCallHandle tracks one in-flight tool call between Start and
// Succeed/Fail.
type ToolCallHandle struct {
	rec       *Recorder
	name      string
	input     []byte
	effect    artifact.EffectType
	startedAt time.Time
}

// Succeed records a successful completion with the given output.
func (h *ToolCallHandle) Succeed(output []byte) {
	end := time.Now().UTC()
	h.rec.artifact.RecordToolCall(artifact.ToolCall{
		Name:      h.name,
		Input:     h.input,
		Output:    output,
		Effect:    h.effect,
		Status:    artifact.StatusOK,
		LatencyMS: end.Sub(h.startedAt).Milliseconds(),
		StartedAt: h.startedAt,
		EndedAt:   end,
	})
}

// Fail records a failed completion with the given error text.
func (h *ToolCallHandle) Fail(errText string) {
	end := time.Now().UTC()
	h.rec.artifact.RecordToolCall(artifact.ToolCall{
		Name:      h.name,
		Input:     h.input,
		Effect:    h.effect,
		Status:    artifact.StatusError,
		Error:     errText,
		LatencyMS: end.Sub(h.startedAt).Milliseconds(),
		StartedAt: h.startedAt,
		EndedAt:   end,
	})
}
