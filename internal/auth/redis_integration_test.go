//go:build integration

package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisRevoker(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("get redis port: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { rdb.Close() })

	r := NewRedisRevoker(rdb)
	if err := r.Revoke(ctx, "token-1", time.Second); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	revoked, err := r.IsRevoked(ctx, "token-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = %v, %v", revoked, err)
	}

	revoked, err = r.IsRevoked(ctx, "token-2")
	if err != nil || revoked {
		t.Fatalf("IsRevoked(unknown) = %v, %v", revoked, err)
	}

	ttl, err := rdb.TTL(ctx, "tradesnap:revoked:token-1").Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected revocation key to carry a ttl, got %v, %v", ttl, err)
	}
}
