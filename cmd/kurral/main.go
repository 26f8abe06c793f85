// Command kurral is a thin composition root over package store, replay, and
// ars: it wires a storage backend chosen by flag/environment to the three
// CLI operations spec'd for the core (replay, list, ab model-migration) and
// contains no business logic of its own.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
