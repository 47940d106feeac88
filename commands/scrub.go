package commands

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"veilfs/config"
	"veilfs/datastore"
	"veilfs/keyspace"
	"veilfs/oid"
)

const scrubConcurrency = 8

// RunScrub re-hashes every stored blob and checks it against its key and its
// stored metadata. Mismatches are logged, not repaired.
func RunScrub(ctx context.Context, cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	enum, ok := store.Engine().(datastore.Enumerator)
	if !ok {
		log.Fatal("Storage engine does not support enumeration")
	}

	keys, err := enum.ListKeys(keyspace.Blobs)
	if err != nil {
		log.Fatalf("Failed to list blobs: %v", err)
	}

	var checked, bad atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scrubConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			h, err := oid.HashFromBytes(key)
			if err != nil {
				log.Warnf("Skipping blob with non-hash key %x", key)
				return nil
			}

			b, err := store.GetBlob(h.ID()).Get(ctx)
			if err != nil {
				return err
			}
			if b == nil {
				bad.Add(1)
				log.Errorf("Blob %s is unreadable", h.String())
				return nil
			}
			checked.Add(1)

			if got := oid.Sum(b.Bytes()); got != h {
				bad.Add(1)
				log.Errorf("Blob %s hashes to %s", h.String(), got.String())
				return nil
			}

			md, err := store.GetBlobMetadata(h.ID()).Get(ctx)
			if err != nil {
				return err
			}
			if md == nil {
				return nil
			}
			if md.Size != b.Size() || md.ContentHash != h {
				bad.Add(1)
				log.Errorf("Blob %s disagrees with its metadata (size %d vs %d)", h.String(), b.Size(), md.Size)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Scrub aborted: %v", err)
	}

	if n := bad.Load(); n > 0 {
		log.Errorf("Scrub finished: %d blobs checked, %d bad", checked.Load(), n)
		return
	}
	log.Infof("Scrub finished: %d blobs checked, all good", checked.Load())
}
