package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurral/kurral/store"
)

func TestFilterByBucket(t *testing.T) {
	t.Parallel()
	entries := []store.IndexEntry{
		{ID: "1", SemanticBuckets: []string{"support"}},
		{ID: "2", SemanticBuckets: []string{"billing"}},
		{ID: "3", SemanticBuckets: []string{"support", "billing"}},
	}
	got := filterByBucket(entries, "billing")
	require.Len(t, got, 2)
	require.Equal(t, "2", got[0].ID)
	require.Equal(t, "3", got[1].ID)
}

func TestJoinBuckets(t *testing.T) {
	t.Parallel()
	require.Equal(t, "-", joinBuckets(nil))
	require.Equal(t, "a,b", joinBuckets([]string{"a", "b"}))
}
