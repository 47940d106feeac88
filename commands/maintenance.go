package commands

import (
	"context"

	"veilfs/config"
	"veilfs/datastore"
	"veilfs/helper/timer"
	"veilfs/keyspace"
)

// RunCompact compacts every storage partition once.
func RunCompact(ctx context.Context, cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if err := store.CompactStorage(keyspace.All); err != nil {
		log.Fatalf("Compaction failed: %v", err)
	}
	log.Info("Compaction complete")
}

// RunGC wipes cache partitions and sweeps deprecated ones.
func RunGC(ctx context.Context, cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if err := store.ClearCaches(keyspace.All); err != nil {
		log.Fatalf("Failed to clear caches: %v", err)
	}
	if err := store.ClearDeprecatedKeySpaces(keyspace.All); err != nil {
		log.Fatalf("Failed to sweep deprecated keyspaces: %v", err)
	}
	log.Info("Garbage collection complete")
}

// RunMaintain runs the periodic management task on a jittered ticker until
// the context is cancelled.
func RunMaintain(ctx context.Context, cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	mgmt := datastore.ManagementConfig{CompactOnRun: cfg.Maintenance.CompactOnRun}
	err = timer.RunWithTicker(ctx, cfg.MaintenanceInterval(), func(ctx context.Context) error {
		return store.PeriodicManagementTask(mgmt)
	})
	if err != nil && err != context.Canceled {
		log.Fatalf("Maintenance loop failed: %v", err)
	}
}
