package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestStore returns an IdempotencyStore backed by an in-process redis.
// The client is closed when the test ends.
func newTestStore(t *testing.T) (*IdempotencyStore, *redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	client, mr := newTestRedisClient(t)
	t.Cleanup(func() { _ = client.Close() })

	return NewIdempotencyStore(client), client, mr
}

func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})

	return client, mr
}
