package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revocations in process memory.
type MemoryRevoker struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

// NewMemoryRevoker creates an empty revocation list.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{now: time.Now, revoked: make(map[string]time.Time)}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[tokenID]
	return ok && until.After(m.now()), nil
}

// RedisRevoker shares revocations between instances through Redis keys
// that expire with the token.
type RedisRevoker struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisRevoker uses rdb with keys under "tradesnap:revoked:".
func NewRedisRevoker(rdb redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, prefix: "tradesnap:revoked:"}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.prefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := r.rdb.Exists(ctx, r.prefix+tokenID).Result()
	return count > 0, err
}
