package redis

import (
	"context"
	"sync"
	"time"

	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// Blacklist stores revoked token IDs until they would have expired anyway
type Blacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisBlacklist struct {
	client *redis.Client
}

// NewBlacklist returns a Redis-backed blacklist on the given client
func NewBlacklist(c *redis.Client) Blacklist {
	return &redisBlacklist{client: c}
}

func (b *redisBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": ttl.String(),
	})

	if err := b.client.Set(ctx, blacklistPrefix+tokenID, "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (b *redisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := b.client.Get(ctx, blacklistPrefix+tokenID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// MemoryBlacklist is used when Redis is disabled. Entries do not survive a restart.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	m.entries[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}
