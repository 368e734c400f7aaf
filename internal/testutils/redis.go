package testutils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisImage is the container image used when no external Redis is given
const RedisImage = "redis:7-alpine"

// CreateTestRedisClient returns a client for a throwaway Redis. It uses
// REDIS_TEST_ADDR when set, otherwise it starts a container. The test is
// skipped when neither is available.
func CreateTestRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = startRedisContainer(t)
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   15, // Use DB 15 for tests to avoid conflicts
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err(), "Failed to flush test Redis database")

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

func startRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("Docker not available for Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	return endpoint
}
