package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CascadeLockKey builds redis keys for the per-quarry daily-ledger critical section.
func CascadeLockKey(quarryID int64) string {
	return fmt.Sprintf("qdesk:quarry:%d:cascade:lock", quarryID)
}

// ErrLockHeld indicates the critical section is owned by another writer.
var ErrLockHeld = errors.New("shared: lock already held")

// TenantLock is a redis TTL mutex. The daily-ledger cascade is order
// dependent per quarry, so two writers for the same quarry must never
// interleave; different quarries proceed independently.
type TenantLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTenantLock constructs a TenantLock with the supplied lease TTL.
func NewTenantLock(client *redis.Client, ttl time.Duration) *TenantLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TenantLock{client: client, ttl: ttl}
}

// Acquire takes the lock for key, returning a release token.
func (l *TenantLock) Acquire(ctx context.Context, key string) (string, error) {
	if l == nil || l.client == nil {
		return "", errors.New("shared: tenant lock not initialised")
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// releaseScript deletes the key only when still owned by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release frees the lock when the token still owns it.
func (l *TenantLock) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return errors.New("shared: tenant lock not initialised")
	}
	return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
