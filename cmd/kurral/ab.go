package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kurral/kurral/ars"
	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

func buildABCmd(storagePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ab",
		Short: "Batch-compare artifacts for behavioral drift",
	}
	cmd.AddCommand(buildABModelMigrationCmd(storagePath))
	return cmd
}

func buildABModelMigrationCmd(storagePath *string) *cobra.Command {
	var (
		baselinePath string
		modelA       string
		modelB       string
		threshold    float64
	)

	cmd := &cobra.Command{
		Use:   "model-migration",
		Short: "Compare model-a runs against model-b runs of the same run IDs",
		Long: `Scans the artifact store for runs captured once under --model-a and once
under --model-b (matched by run ID), runs the Agent-Regression-Score
comparator over each pair, and reports a summary exit code of 1 if the
mean score falls below --threshold or any pair fails it individually.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runABModelMigration(cmd.Context(), firstNonEmpty(baselinePath, *storagePath), modelA, modelB, threshold)
		},
	}
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "artifact store directory to scan for both model runs (defaults to --storage-path)")
	cmd.Flags().StringVar(&modelA, "model-a", "", "model name identifying the baseline runs (required)")
	cmd.Flags().StringVar(&modelB, "model-b", "", "model name identifying the candidate runs (required)")
	cmd.Flags().Float64Var(&threshold, "threshold", ars.DefaultFailureThreshold, "minimum passing ARS score")
	_ = cmd.MarkFlagRequired("model-a")
	_ = cmd.MarkFlagRequired("model-b")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runABModelMigration(ctx context.Context, storagePath, modelA, modelB string, threshold float64) error {
	s, err := openStore(storagePath)
	if err != nil {
		return err
	}

	entries, err := s.ListAll(ctx, 0)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	baselines, candidates, err := pairByRunID(ctx, s, entries, modelA, modelB)
	if err != nil {
		return err
	}
	if len(baselines) == 0 {
		return fmt.Errorf("no run IDs have both a %q and a %q artifact", modelA, modelB)
	}

	result, err := ars.CompareBatch(baselines, candidates, threshold)
	if err != nil {
		return fmt.Errorf("compare batch: %w", err)
	}

	fmt.Printf("Pairs compared: %d\n", len(result.Results))
	fmt.Printf("Mean score:     %.4f\n", result.Mean)
	fmt.Printf("Min score:      %.4f\n", result.Min)
	fmt.Printf("Max score:      %.4f\n", result.Max)
	fmt.Printf("Failed pairs:   %d\n", result.FailedCount)

	if result.FailedCount > 0 || result.Mean < threshold {
		return fmt.Errorf("model migration from %q to %q failed threshold %.2f", modelA, modelB, threshold)
	}
	return nil
}

// pairByRunID loads entries into full artifacts and groups them by run ID,
// keeping the artifact captured under modelA as that pair's baseline and the
// one captured under modelB as its candidate. Run IDs missing either side
// are skipped.
func pairByRunID(ctx context.Context, s store.Store, entries []store.IndexEntry, modelA, modelB string) ([]*artifact.SealedArtifact, []*artifact.SealedArtifact, error) {
	type pair struct {
		baseline  *artifact.SealedArtifact
		candidate *artifact.SealedArtifact
	}
	byRunID := make(map[string]*pair)

	for _, e := range entries {
		a, err := s.Get(ctx, e.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("get artifact %s: %w", e.ID, err)
		}
		p, ok := byRunID[a.RunID]
		if !ok {
			p = &pair{}
			byRunID[a.RunID] = p
		}
		switch a.Model.Name {
		case modelA:
			p.baseline = &a
		case modelB:
			p.candidate = &a
		}
	}

	var baselines, candidates []*artifact.SealedArtifact
	for _, p := range byRunID {
		if p.baseline != nil && p.candidate != nil {
			baselines = append(baselines, p.baseline)
			candidates = append(candidates, p.candidate)
		}
	}
	return baselines, candidates, nil
}
