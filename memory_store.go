package context

import (
	stdctx "context"
	"time"
)

// MemoryStoreStats summarizes a MemoryStore's current contents.
type MemoryStoreStats struct {
	BlockCount int
	TotalBytes int64
}

// MemoryStore is the persistence capability for memory-kind blocks (and,
// at a caller's discretion, any other kind) across process restarts or
// sub-agent boundaries. TTL bookkeeping runs per-operation, never on a
// background clock (spec.md §5): a zero ttl means no expiry.
type MemoryStore interface {
	Save(ctx stdctx.Context, block Block, derivedFrom []BlockRef, references []string, ttl time.Duration) error
	Load(ctx stdctx.Context, hash string) (Block, bool, error)
	Query(ctx stdctx.Context, query Query) ([]Block, error)
	Delete(ctx stdctx.Context, hash string) error
	DeleteMany(ctx stdctx.Context, hashes []string) error
	Exists(ctx stdctx.Context, hash string) (bool, error)
	GetStats(ctx stdctx.Context) (MemoryStoreStats, error)
	Clear(ctx stdctx.Context) error
}
