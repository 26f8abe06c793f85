package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurral/kurral/store"
	"github.com/kurral/kurral/store/local"
	"github.com/kurral/kurral/store/memory"
)

// defaultStoragePath mirrors the core's convention of defaulting to a
// "./kurral_artifacts" directory under the current working directory when
// no path is supplied.
const defaultStoragePath = "./kurral_artifacts"

func buildRootCmd() *cobra.Command {
	var storagePath string

	cmd := &cobra.Command{
		Use:           "kurral",
		Short:         "Inspect, replay, and compare captured Kurral execution traces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "artifact store directory (defaults to $KURRAL_STORAGE_PATH or "+defaultStoragePath+")")

	cmd.AddCommand(
		buildReplayCmd(&storagePath),
		buildListCmd(&storagePath),
		buildABCmd(&storagePath),
	)
	return cmd
}

// openStore resolves the storage backend named by one of: the --storage-path
// flag, the KURRAL_STORAGE_PATH environment variable, or the default path.
// KURRAL_STORAGE=memory selects the in-memory backend instead, matching the
// core's {local, memory, api, custom-bucket} environment-variable-selected
// backend set; the CLI only ever drives local or memory directly, treating
// api/custom-bucket as external-collaborator concerns.
func openStore(storagePath string) (store.Store, error) {
	if os.Getenv("KURRAL_STORAGE") == "memory" {
		return memory.New(memory.Config{}), nil
	}
	if storagePath == "" {
		storagePath = os.Getenv("KURRAL_STORAGE_PATH")
	}
	if storagePath == "" {
		storagePath = defaultStoragePath
	}
	s, err := local.New(storagePath)
	if err != nil {
		return nil, fmt.Errorf("open storage at %q: %w", storagePath, err)
	}
	return s, nil
}
