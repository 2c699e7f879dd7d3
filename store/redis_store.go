package store

import (
	stdctx "context"
	"encoding/json"
	"strings"
	"time"

	ctx "github.com/iota-uz/context"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "context:block:"

// redisRecord is the JSON envelope stored per block, carrying the edges
// needed to evaluate a Query.matches without a companion graph.
type redisRecord struct {
	Block       ctx.Block      `json:"block"`
	DerivedFrom []ctx.BlockRef `json:"derivedFrom,omitempty"`
	References  []string       `json:"references,omitempty"`
}

// RedisStoreConfig configures NewRedisStore.
type RedisStoreConfig struct {
	RedisURL  string
	KeyPrefix string
	Client    *redis.Client
}

// RedisStore is a ctx.MemoryStore backed by Redis. Each block is one string
// key (JSON-encoded); TTLs ride on Redis's own per-key expiry rather than a
// background sweep, so bookkeeping happens on each Save/Load/Query call,
// never on a separate clock.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore builds a RedisStore from cfg. If cfg.Client is nil, a new
// client is created from cfg.RedisURL and pinged immediately.
func NewRedisStore(ctxArg stdctx.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	client := cfg.Client
	if client == nil {
		c, err := newRedisClient(ctxArg, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client = c
	}

	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

func newRedisClient(ctxArg stdctx.Context, redisURL string) (*redis.Client, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, ctx.NewError(ctx.KindValidation, "", "redis url is required", nil)
	}

	var opts *redis.Options
	var err error
	if strings.Contains(redisURL, "://") {
		opts, err = redis.ParseURL(redisURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opts)
	if pingErr := client.Ping(ctxArg).Err(); pingErr != nil {
		_ = client.Close()
		return nil, errors.Wrap(pingErr, "ping redis")
	}
	return client, nil
}

func (s *RedisStore) key(hash string) string {
	return s.keyPrefix + hash
}

func (s *RedisStore) Save(ctxArg stdctx.Context, block ctx.Block, derivedFrom []ctx.BlockRef, references []string, ttl time.Duration) error {
	rec := redisRecord{Block: block, DerivedFrom: derivedFrom, References: references}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal block record")
	}

	var expiry time.Duration
	if ttl > 0 {
		expiry = ttl
	}
	if err := s.client.Set(ctxArg, s.key(block.Hash), data, expiry).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return s.client.SAdd(ctxArg, s.indexKey(), block.Hash).Err()
}

func (s *RedisStore) indexKey() string {
	return s.keyPrefix + "index"
}

func (s *RedisStore) Load(ctxArg stdctx.Context, hash string) (ctx.Block, bool, error) {
	rec, ok, err := s.loadRecord(ctxArg, hash)
	if err != nil || !ok {
		return ctx.Block{}, ok, err
	}
	return rec.Block, true, nil
}

func (s *RedisStore) loadRecord(ctxArg stdctx.Context, hash string) (redisRecord, bool, error) {
	data, err := s.client.Get(ctxArg, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		_ = s.client.SRem(ctxArg, s.indexKey(), hash).Err()
		return redisRecord{}, false, nil
	}
	if err != nil {
		return redisRecord{}, false, errors.Wrap(err, "redis get")
	}
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return redisRecord{}, false, errors.Wrap(err, "unmarshal block record")
	}
	return rec, true, nil
}

func (s *RedisStore) Query(ctxArg stdctx.Context, query ctx.Query) ([]ctx.Block, error) {
	hashes, err := s.client.SMembers(ctxArg, s.indexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis smembers")
	}

	var out []ctx.Block
	for _, hash := range hashes {
		rec, ok, err := s.loadRecord(ctxArg, hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if query.Matches(rec.Block, rec.DerivedFrom, rec.References) {
			out = append(out, rec.Block)
		}
	}
	return out, nil
}

func (s *RedisStore) Delete(ctxArg stdctx.Context, hash string) error {
	if err := s.client.Del(ctxArg, s.key(hash)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return s.client.SRem(ctxArg, s.indexKey(), hash).Err()
}

func (s *RedisStore) DeleteMany(ctxArg stdctx.Context, hashes []string) error {
	for _, h := range hashes {
		if err := s.Delete(ctxArg, h); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Exists(ctxArg stdctx.Context, hash string) (bool, error) {
	n, err := s.client.Exists(ctxArg, s.key(hash)).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis exists")
	}
	if n == 0 {
		_ = s.client.SRem(ctxArg, s.indexKey(), hash).Err()
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) GetStats(ctxArg stdctx.Context) (ctx.MemoryStoreStats, error) {
	hashes, err := s.client.SMembers(ctxArg, s.indexKey()).Result()
	if err != nil {
		return ctx.MemoryStoreStats{}, errors.Wrap(err, "redis smembers")
	}

	stats := ctx.MemoryStoreStats{}
	for _, hash := range hashes {
		data, err := s.client.Get(ctxArg, s.key(hash)).Bytes()
		if errors.Is(err, redis.Nil) {
			_ = s.client.SRem(ctxArg, s.indexKey(), hash).Err()
			continue
		}
		if err != nil {
			return ctx.MemoryStoreStats{}, errors.Wrap(err, "redis get")
		}
		stats.BlockCount++
		stats.TotalBytes += int64(len(data))
	}
	return stats, nil
}

func (s *RedisStore) Clear(ctxArg stdctx.Context) error {
	hashes, err := s.client.SMembers(ctxArg, s.indexKey()).Result()
	if err != nil {
		return errors.Wrap(err, "redis smembers")
	}
	if len(hashes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, s.key(h))
	}
	keys = append(keys, s.indexKey())
	return s.client.Del(ctxArg, keys...).Err()
}
