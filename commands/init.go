package commands

import (
	"context"
	"os"

	"veilfs/config"
)

func RunInit(ctx context.Context, cfg *config.Config) {
	if err := os.MkdirAll(cfg.DataStore.Path, 0755); err != nil {
		log.Fatalf("Failed to create datastore directory: %v", err)
	}
	if cfg.Filters.ProfileDir != "" {
		if err := os.MkdirAll(cfg.Filters.ProfileDir, 0755); err != nil {
			log.Fatalf("Failed to create profile directory: %v", err)
		}
	}
	if err := cfg.Save(); err != nil {
		log.Fatalf("Failed to save config: %v", err)
	}
}
