package capture

import (
	"context"
	"time"

	"github.com/kurral/kurral/artifact"
)

// enrich runs as a detached goroutine after Capture has persisted sealed
// invisibly via Store.PutPartial. It waits for the external trace service
// to settle, fetches enrichment data, merges it into sealed, and promotes
// the result — the one point at which the artifact becomes visible to
// readers, so a reader polling the store during the settle wait sees no
// entry at all rather than one that is later mutated underneath it. A
// failure here never propagates to Capture's caller: the agent's own
// return value was already delivered. Enrichment fetch failure still
// promotes the un-enriched sealed artifact, so it does not stay invisible
// forever.
func enrich(sealed artifact.SealedArtifact, runID string, opts Options) {
	if opts.Store == nil {
		return
	}
	settleWait := opts.EnrichSettleWait
	if settleWait <= 0 {
		settleWait = defaultEnrichSettleWait
	}
	deadline := opts.EnrichDeadline
	if deadline <= 0 {
		deadline = defaultEnrichDeadline
	}

	time.Sleep(settleWait)

	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	enrichment, err := opts.Trace.FetchTrace(ctx, runID)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn(ctx, "capture: enrichment fetch failed", "kurral_id", sealed.ID, "run_id", runID, "error", err.Error())
		}
		if promoteErr := opts.Store.Promote(ctx, sealed); promoteErr != nil && opts.Logger != nil {
			opts.Logger.Warn(ctx, "capture: promote after failed enrichment failed", "kurral_id", sealed.ID, "error", promoteErr.Error())
		}
		return
	}

	if enrichment.GraphVersion != nil {
		sealed.GraphVersion = enrichment.GraphVersion
	}
	if len(enrichment.Tags) > 0 {
		if sealed.Tags == nil {
			sealed.Tags = make(map[string]string, len(enrichment.Tags))
		}
		for k, v := range enrichment.Tags {
			sealed.Tags[k] = v
		}
	}

	if err := opts.Store.Promote(ctx, sealed); err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn(ctx, "capture: enrichment persist failed", "kurral_id", sealed.ID, "error", err.Error())
		}
	}
}
