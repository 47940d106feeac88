package commands

import (
	"context"
	"os"

	"veilfs/backing/localbs"
	"veilfs/config"
	"veilfs/datamodel/blob"
	"veilfs/oid"
)

// RunPut stores a file's content as a blob and prints its hash.
func RunPut(ctx context.Context, cfg *config.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	backend := localbs.New(store)
	h := oid.Sum(data)
	if err := backend.PutBlob(h, blob.New(data)); err != nil {
		log.Fatalf("Failed to store blob: %v", err)
	}

	log.Infof("Stored %d bytes as %s", len(data), h.String())
}
