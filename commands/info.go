package commands

import (
	"context"

	"veilfs/config"
	"veilfs/datastore"
	"veilfs/keyspace"
)

func RunInfo(ctx context.Context, cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	enum, ok := store.Engine().(datastore.Enumerator)

	for _, ks := range keyspace.All {
		flags := ""
		if ks.Ephemeral {
			flags += " ephemeral"
		}
		if ks.Deprecated {
			flags += " deprecated"
		}

		if !ok {
			log.Infof("Keyspace %s (%s)%s", ks.Name, ks.Family, flags)
			continue
		}
		n, err := enum.EntryCount(ks)
		if err != nil {
			log.Errorf("Failed to count keyspace %s: %v", ks.Name, err)
			continue
		}
		log.Infof("Keyspace %s (%s)%s: %d entries", ks.Name, ks.Family, flags, n)
	}
}
