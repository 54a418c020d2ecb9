//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/storetest"
)

// startRedis runs a throwaway redis container and returns its address.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestSessions_RealRedis(t *testing.T) {
	addr := startRedis(t)

	storetest.RunSessions(t, func(t *testing.T) store.Store {
		client := redis.NewClient(&redis.Options{Addr: addr})
		require.NoError(t, client.FlushAll(context.Background()).Err())
		s := NewStore(client, store.NewCodec(nil))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
