package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kurral/kurral/store"
)

func buildListCmd(storagePath *string) *cobra.Command {
	var (
		limit  int
		bucket string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured artifacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), *storagePath, limit, bucket)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of artifacts to list (0 for no limit)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "only list artifacts tagged with this semantic bucket")
	return cmd
}

func runList(ctx context.Context, storagePath string, limit int, bucket string) error {
	s, err := openStore(storagePath)
	if err != nil {
		return err
	}

	// Over-fetch when filtering by bucket so limit still bounds the final,
	// filtered count rather than the pre-filter scan.
	fetchLimit := limit
	if bucket != "" && fetchLimit > 0 {
		fetchLimit = 0
	}
	entries, err := s.ListAll(ctx, fetchLimit)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	if bucket != "" {
		entries = filterByBucket(entries, bucket)
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
	}

	if len(entries) == 0 {
		fmt.Println("No artifacts found.")
		return nil
	}

	fmt.Printf("%-36s  %-24s  %-12s  %s\n", "ID", "CREATED", "TENANT", "BUCKETS")
	for _, e := range entries {
		fmt.Printf("%-36s  %-24s  %-12s  %s\n",
			e.ID, e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.TenantID, joinBuckets(e.SemanticBuckets))
	}
	return nil
}

func filterByBucket(entries []store.IndexEntry, bucket string) []store.IndexEntry {
	out := entries[:0]
	for _, e := range entries {
		for _, b := range e.SemanticBuckets {
			if b == bucket {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func joinBuckets(buckets []string) string {
	if len(buckets) == 0 {
		return "-"
	}
	out := buckets[0]
	for _, b := range buckets[1:] {
		out += "," + b
	}
	return out
}
