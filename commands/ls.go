package commands

import (
	"context"

	"veilfs/backing/filtered"
	"veilfs/backing/localbs"
	"veilfs/config"
)

// RunLs lists the root tree of a filtered view. rootID is the composite
// "<commit>:<profile>" form.
func RunLs(ctx context.Context, cfg *config.Config, rootID string) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	profiles, err := loadProfiles(cfg)
	if err != nil {
		log.Fatalf("Failed to load filter profiles: %v", err)
	}

	view := filtered.New(localbs.New(store), profiles)

	id, err := view.GetRootTree(ctx, rootID).Get(ctx)
	if err != nil {
		log.Fatalf("Failed to resolve root %q: %v", rootID, err)
	}

	t, err := view.GetTree(ctx, id).Get(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch root tree: %v", err)
	}

	for _, e := range t.Entries() {
		log.Infof("%-10s %s  %s", e.Type, e.ID.String(), e.Name)
	}
}
