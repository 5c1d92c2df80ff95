package refseq_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andrew-torda/pdbrenum/refseq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) (*refseq.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := refseq.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:ref:", ttl)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, time.Hour)

	ref, err := c.Get(ctx, "P00533")
	require.NoError(t, err)
	assert.Nil(t, ref)

	want := &refseq.Reference{Accession: "P00533", Sequence: "MRPSGTAGAALL", Gene: "EGFR"}
	require.NoError(t, c.Put(ctx, want))
	assert.True(t, mr.Exists("test:ref:P00533"))
	assert.Equal(t, time.Hour, mr.TTL("test:ref:P00533"))

	got, err := c.Get(ctx, "P00533")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Hour)
	got, err = c.Get(ctx, "P00533")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheBadEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t, 0)
	require.NoError(t, mr.Set("test:ref:P1", "not json"))
	_, err := c.Get(ctx, "P1")
	assert.Error(t, err)

	down := refseq.NewRedisCache(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	}), "test:ref:", 0)
	defer down.Close()
	_, err = down.Get(ctx, "P1")
	assert.Error(t, err)
}
