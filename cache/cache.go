// Package cache implements the content-addressed tool-call stub cache:
// entries keyed by artifact.ToolCacheKey, populated from a sealed artifact
// and consumed by package replay during cache-hit stubbing.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/kurral/kurral/artifact"
)

// DefaultTTL is the cache entry lifetime used when Put is called without an
// explicit TTL.
const DefaultTTL = 3600 * time.Second

// Stub is the payload stored under a tool call's cache key.
type Stub struct {
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input"`
	Output     json.RawMessage `json:"output"`
	Status     artifact.ToolCallStatus `json:"status"`
	LatencyMS  int64           `json:"latency_ms"`
	Summary    string          `json:"summary,omitempty"`
	ErrorText  string          `json:"error_text,omitempty"`
	Effect     artifact.EffectType `json:"effect_type"`
	OutputHash string          `json:"output_hash,omitempty"`
}

// Stats reports cache occupancy and hit/miss counters since construction.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

type entry struct {
	stub      Stub
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-memory, content-addressed cache of tool-call stubs. It is
// safe for concurrent use. Expired entries are removed lazily on Get; no
// background goroutine is started.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]entry
	hits   int64
	misses int64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{items: make(map[string]entry)}
}

// Put inserts or overwrites the stub under key with the given TTL. A zero
// ttl uses DefaultTTL.
func (c *Cache) Put(key string, stub Stub, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{stub: stub, createdAt: now, expiresAt: now.Add(ttl)}
}

// Get returns the stub for key and true, or a zero Stub and false if the
// key is absent or its entry has expired. A lookup that finds an expired
// entry removes it from the cache.
func (c *Cache) Get(key string) (Stub, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		c.recordMiss()
		return Stub{}, false
	}
	if time.Now().UTC().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		c.recordMiss()
		return Stub{}, false
	}
	c.recordHit()
	return e.stub, true
}

// Delete removes key unconditionally.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
}

// Stats reports current occupancy and cumulative hit/miss counts.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries: len(c.items),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

// PopulateFromArtifact builds a stub for every tool call in a (in-process
// and MCP) and inserts it under the call's cache key with ttl (DefaultTTL
// if zero). Existing entries under the same key are overwritten.
func (c *Cache) PopulateFromArtifact(a *artifact.Artifact, ttl time.Duration) {
	for _, tc := range a.ToolCalls {
		c.Put(tc.CacheKey, stubFromToolCall(tc), ttl)
	}
	for _, tc := range a.MCPToolCalls {
		c.Put(tc.CacheKey, stubFromToolCall(tc.ToolCall), ttl)
	}
}

func stubFromToolCall(tc artifact.ToolCall) Stub {
	return Stub{
		ToolName:   tc.Name,
		Input:      tc.Input,
		Output:     tc.Output,
		Status:     tc.Status,
		LatencyMS:  tc.LatencyMS,
		ErrorText:  tc.Error,
		Effect:     tc.Effect,
		OutputHash: tc.OutputHash,
	}
}
