package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type localLock struct {
	token     string
	expiresAt time.Time
}

// GenerationLockRepository hands out per-key advisory locks. Redis backs the lock when a
// client is configured; otherwise locks are held in process memory.
type GenerationLockRepository struct {
	client *redis.Client
	now    func() time.Time

	mu    sync.Mutex
	local map[string]localLock
}

// NewGenerationLockRepository constructs the lock repository. client may be nil.
func NewGenerationLockRepository(client *redis.Client) *GenerationLockRepository {
	return &GenerationLockRepository{
		client: client,
		now:    time.Now,
		local:  make(map[string]localLock),
	}
}

// Acquire tries to take the lock for ttl. It returns the owner token and false when
// the lock is already held.
func (r *GenerationLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	if r.client == nil {
		return token, r.acquireLocal(key, token, ttl), nil
	}
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if token still owns it.
func (r *GenerationLockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil {
		r.releaseLocal(key, token)
		return nil
	}
	if err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release lock %s: %w", key, err)
	}
	return nil
}

func (r *GenerationLockRepository) acquireLocal(key, token string, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if held, ok := r.local[key]; ok && now.Before(held.expiresAt) {
		return false
	}
	r.local[key] = localLock{token: token, expiresAt: now.Add(ttl)}
	return true
}

func (r *GenerationLockRepository) releaseLocal(key, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.local[key]; ok && held.token == token {
		delete(r.local, key)
	}
}
