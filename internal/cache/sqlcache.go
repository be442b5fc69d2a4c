package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
)

// ErrNotFound is returned when no cached SQL exists for a question.
var ErrNotFound = errors.New("sql cache entry not found")

// Entry is one cached NL→SQL translation.
type Entry struct {
	Question  string    `json:"question"`
	Model     string    `json:"model"`
	SQL       string    `json:"sql"`
	CreatedAt time.Time `json:"created_at"`
}

// SQLCache stores LLM-generated SQL keyed by (model, question), so repeated
// questions skip the LLM round trip. Entries expire on their own; Flush
// exists for schema changes that invalidate every cached query at once.
type SQLCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func New(client redis.Cmdable, ttl time.Duration) (*SQLCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SQLCache{client: client, ttl: ttl}, nil
}

// Get returns the cached entry for a (model, question) pair, or ErrNotFound.
func (c *SQLCache) Get(ctx context.Context, model, question string) (*Entry, error) {
	val, err := c.client.Get(ctx, entryKey(model, question)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached sql: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, fmt.Errorf("unmarshal cached sql: %w", err)
	}
	return &e, nil
}

// Put stores a generated query. The value and the index membership are
// written in one transaction so Flush never misses a live entry.
func (c *SQLCache) Put(ctx context.Context, model, question, sql string) (*Entry, error) {
	e := &Entry{
		Question:  question,
		Model:     model,
		SQL:       sql,
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}

	key := entryKey(model, question)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, b, c.ttl)
	pipe.SAdd(ctx, constants.RedisKeySQLCacheIndex, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store cache entry: %w", err)
	}

	return e, nil
}

// Flush drops every cached translation.
func (c *SQLCache) Flush(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, constants.RedisKeySQLCacheIndex).Result()
	if err != nil {
		return fmt.Errorf("list cache index: %w", err)
	}

	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, constants.RedisKeySQLCacheIndex)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flush sql cache: %w", err)
	}
	return nil
}

// entryKey hashes the pair so arbitrary question text never leaks into the
// Redis keyspace. The model is part of the key: different models produce
// different SQL for the same question.
func entryKey(model, question string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + question))
	return constants.RedisKeySQLCachePrefix + hex.EncodeToString(sum[:])
}
