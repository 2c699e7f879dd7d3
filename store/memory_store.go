// Package store provides MemoryStore implementations: an in-process map for
// tests and single-node deployments, and a Redis-backed store for durability
// across restarts.
package store

import (
	stdctx "context"
	"sync"
	"time"

	ctx "github.com/iota-uz/context"
)

type inMemoryRecord struct {
	block       ctx.Block
	derivedFrom []ctx.BlockRef
	references  []string
	expiresAt   time.Time // zero means no expiry
}

func (r inMemoryRecord) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// InMemoryStore is a map-backed ctx.MemoryStore. TTL bookkeeping is lazy: an
// expired record is dropped the next time it is touched by any operation,
// never by a background goroutine.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]inMemoryRecord
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]inMemoryRecord)}
}

func (s *InMemoryStore) Save(_ stdctx.Context, block ctx.Block, derivedFrom []ctx.BlockRef, references []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = ctx.Now().Add(ttl)
	}
	s.records[block.Hash] = inMemoryRecord{
		block:       block,
		derivedFrom: append([]ctx.BlockRef(nil), derivedFrom...),
		references:  append([]string(nil), references...),
		expiresAt:   expiresAt,
	}
	return nil
}

func (s *InMemoryStore) Load(_ stdctx.Context, hash string) (ctx.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[hash]
	if !ok {
		return ctx.Block{}, false, nil
	}
	if rec.expired(ctx.Now()) {
		delete(s.records, hash)
		return ctx.Block{}, false, nil
	}
	return rec.block, true, nil
}

func (s *InMemoryStore) Query(_ stdctx.Context, query ctx.Query) ([]ctx.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := ctx.Now()
	var out []ctx.Block
	for hash, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, hash)
			continue
		}
		if query.Matches(rec.block, rec.derivedFrom, rec.references) {
			out = append(out, rec.block)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ stdctx.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, hash)
	return nil
}

func (s *InMemoryStore) DeleteMany(_ stdctx.Context, hashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hashes {
		delete(s.records, h)
	}
	return nil
}

func (s *InMemoryStore) Exists(_ stdctx.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[hash]
	if !ok {
		return false, nil
	}
	if rec.expired(ctx.Now()) {
		delete(s.records, hash)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryStore) GetStats(_ stdctx.Context) (ctx.MemoryStoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := ctx.Now()
	stats := ctx.MemoryStoreStats{}
	for hash, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, hash)
			continue
		}
		stats.BlockCount++
		stats.TotalBytes += estimateRecordBytes(rec.block)
	}
	return stats, nil
}

func (s *InMemoryStore) Clear(_ stdctx.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]inMemoryRecord)
	return nil
}
