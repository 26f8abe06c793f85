package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/artifact"
)

func TestGetOnMissingKeyReturnsAbsence(t *testing.T) {
	c := New()
	_, ok := c.Get("nope")
	require.False(t, ok)
}

func TestPutThenGetReturnsStub(t *testing.T) {
	c := New()
	c.Put("k1", Stub{ToolName: "search"}, time.Hour)
	stub, ok := c.Get("k1")
	require.True(t, ok)
	require.Equal(t, "search", stub.ToolName)
}

func TestGetOnExpiredEntryReturnsAbsenceAndEvicts(t *testing.T) {
	c := New()
	c.Put("k1", Stub{ToolName: "search"}, time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok := c.Get("k1")
	require.False(t, ok)
	require.Equal(t, 0, c.Stats().Entries)
}

func TestPutOverwritesExistingKey(t *testing.T) {
	c := New()
	c.Put("k1", Stub{ToolName: "first"}, time.Hour)
	c.Put("k1", Stub{ToolName: "second"}, time.Hour)
	stub, ok := c.Get("k1")
	require.True(t, ok)
	require.Equal(t, "second", stub.ToolName)
}

func TestZeroTTLUsesDefault(t *testing.T) {
	c := New()
	c.Put("k1", Stub{}, 0)
	c.mu.RLock()
	e := c.items["k1"]
	c.mu.RUnlock()
	require.WithinDuration(t, e.createdAt.Add(DefaultTTL), e.expiresAt, time.Second)
}

func TestPopulateFromArtifactInsertsUnderCacheKey(t *testing.T) {
	key, err := artifact.ToolCacheKey("search", json.RawMessage(`{"q":"go"}`))
	require.NoError(t, err)

	a := &artifact.Artifact{
		ToolCalls: []artifact.ToolCall{
			{Name: "search", Input: json.RawMessage(`{"q":"go"}`), CacheKey: key, Status: artifact.StatusOK},
		},
	}
	c := New()
	c.PopulateFromArtifact(a, 0)
	stub, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, "search", stub.ToolName)
}

func TestStatsTracksHitsAndMisses(t *testing.T) {
	c := New()
	c.Put("k1", Stub{}, time.Hour)
	_, _ = c.Get("k1")
	_, _ = c.Get("missing")
	stats := c.Stats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
}
