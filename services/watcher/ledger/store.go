// Package ledger persists the two mappings that survive across runs: the
// per-source last-alert date and the per-opportunity registration outcome.
// Runs have no shared memory besides these, every gate in the pipeline
// re-checks them instead of trusting anything in-process.
package ledger

import "context"

// Store holds one whole ledger as an opaque payload. Update is atomic
// with respect to other writers, the mutate callback sees the latest
// stored payload and returns the full replacement. A nil or empty
// payload means the ledger has never been written.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Update(ctx context.Context, mutate func(old []byte) ([]byte, error)) error
}
