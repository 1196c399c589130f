package notify

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session identifies a signed-in session and when its token stops being valid.
// State kept for a session is dropped once ExpiresAt has passed.
type Session struct {
	ID        string
	ExpiresAt time.Time
}

// Sweeper is implemented by stores that hold session state in process memory
// and need expired sessions evicted.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Tracker remembers which synthetic notification ids a session has already
// been shown.
type Tracker interface {
	// MarkIfNew records id for the session and reports whether it was unseen.
	MarkIfNew(ctx context.Context, sess Session, id string) (bool, error)
	Reset(ctx context.Context, sessionID string) error
}

type seenSet struct {
	ids       map[string]struct{}
	expiresAt time.Time
}

type MemoryTracker struct {
	mu   sync.Mutex
	seen map[string]*seenSet
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		seen: make(map[string]*seenSet),
	}
}

func (t *MemoryTracker) MarkIfNew(_ context.Context, sess Session, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.seen[sess.ID]
	if !ok {
		set = &seenSet{ids: make(map[string]struct{})}
		t.seen[sess.ID] = set
	}
	if sess.ExpiresAt.After(set.expiresAt) {
		set.expiresAt = sess.ExpiresAt
	}
	if _, dup := set.ids[id]; dup {
		return false, nil
	}
	set.ids[id] = struct{}{}
	return true, nil
}

func (t *MemoryTracker) Reset(_ context.Context, sessionID string) error {
	t.mu.Lock()
	delete(t.seen, sessionID)
	t.mu.Unlock()
	return nil
}

// Sweep drops sessions whose expiry is not after now.
func (t *MemoryTracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for id, set := range t.seen {
		if !set.expiresAt.After(now) {
			delete(t.seen, id)
			dropped++
		}
	}
	return dropped
}

func (t *MemoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

const trackerKeyPrefix = "notify:seen:"

// RedisTracker keeps one set per session. The set expires with the session;
// ttl applies only when the session carries no expiry.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) MarkIfNew(ctx context.Context, sess Session, id string) (bool, error) {
	key := trackerKeyPrefix + sess.ID
	pipe := t.client.TxPipeline()
	added := pipe.SAdd(ctx, key, id)
	expireKey(ctx, pipe, key, sess.ExpiresAt, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}

func (t *RedisTracker) Reset(ctx context.Context, sessionID string) error {
	return t.client.Del(ctx, trackerKeyPrefix+sessionID).Err()
}

func expireKey(ctx context.Context, pipe redis.Pipeliner, key string, at time.Time, ttl time.Duration) {
	switch {
	case !at.IsZero():
		pipe.ExpireAt(ctx, key, at)
	case ttl > 0:
		pipe.Expire(ctx, key, ttl)
	}
}
