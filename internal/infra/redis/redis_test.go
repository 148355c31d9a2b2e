package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisAppliesLimiterOptions(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client, err := NewRedis("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	if opts.ReadTimeout != readTimeout {
		t.Fatalf("ReadTimeout = %v, want %v", opts.ReadTimeout, readTimeout)
	}
	if opts.WriteTimeout != writeTimeout {
		t.Fatalf("WriteTimeout = %v, want %v", opts.WriteTimeout, writeTimeout)
	}
	if opts.PoolSize != poolSize {
		t.Fatalf("PoolSize = %d, want %d", opts.PoolSize, poolSize)
	}
	if opts.MinIdleConns != minIdleConns {
		t.Fatalf("MinIdleConns = %d, want %d", opts.MinIdleConns, minIdleConns)
	}
}

func TestNewRedisInvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedis("not-a-redis-url"); err == nil {
		t.Fatal("NewRedis() should reject a malformed url")
	}
}
