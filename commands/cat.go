package commands

import (
	"context"
	"os"

	"veilfs/backing/localbs"
	"veilfs/config"
	"veilfs/oid"
)

// RunCat writes a stored blob's content to stdout.
func RunCat(ctx context.Context, cfg *config.Config, hash string) {
	h, err := oid.HashFromString(hash)
	if err != nil {
		log.Fatalf("Invalid hash %q: %v", hash, err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	backend := localbs.New(store)
	b, err := backend.GetBlob(ctx, h).Get(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch blob: %v", err)
	}

	if _, err := os.Stdout.Write(b.Bytes()); err != nil {
		log.Fatalf("Failed to write blob: %v", err)
	}
}
