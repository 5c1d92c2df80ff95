package refseq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps references as JSON under prefix+accession.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. A ttl of zero keeps entries forever.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(acc string) string { return c.prefix + acc }

func (c *RedisCache) Get(ctx context.Context, acc string) (*Reference, error) {
	data, err := c.client.Get(ctx, c.key(acc)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ref := new(Reference)
	if err := json.Unmarshal(data, ref); err != nil {
		return nil, err
	}
	if ref.Sequence == "" {
		return nil, nil
	}
	return ref, nil
}

func (c *RedisCache) Put(ctx context.Context, ref *Reference) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ref.Accession), data, c.ttl).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error { return c.client.Close() }
