package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/redis/go-redis/v9"
)

const inboxKeyPrefix = "notify:inbox:"

// RedisInbox keeps one hash per session, notification id to JSON. The hash
// expires with the session, the same as the RedisTracker set.
type RedisInbox struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisInbox(client *redis.Client, ttl time.Duration) *RedisInbox {
	return &RedisInbox{client: client, ttl: ttl}
}

func (b *RedisInbox) Add(ctx context.Context, sess Session, items ...notification.Notification) error {
	if len(items) == 0 {
		return nil
	}
	key := inboxKeyPrefix + sess.ID
	pipe := b.client.TxPipeline()
	for _, n := range items {
		raw, err := json.Marshal(n)
		if err != nil {
			return err
		}
		pipe.HSetNX(ctx, key, n.ID, raw)
	}
	expireKey(ctx, pipe, key, sess.ExpiresAt, b.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisInbox) load(ctx context.Context, sessionID string) (map[string]notification.Notification, error) {
	raw, err := b.client.HGetAll(ctx, inboxKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[string]notification.Notification, len(raw))
	for id, v := range raw {
		var n notification.Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return nil, err
		}
		items[id] = n
	}
	return items, nil
}

func (b *RedisInbox) List(ctx context.Context, sessionID string) ([]notification.Notification, error) {
	items, err := b.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]notification.Notification, 0, len(items))
	for _, n := range items {
		out = append(out, n)
	}
	sortNewestFirst(out)
	return out, nil
}

func (b *RedisInbox) MarkRead(ctx context.Context, sessionID, id string) (bool, error) {
	key := inboxKeyPrefix + sessionID
	raw, err := b.client.HGet(ctx, key, id).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var n notification.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return false, err
	}
	if n.Read {
		return true, nil
	}
	n.Read = true
	updated, err := json.Marshal(n)
	if err != nil {
		return false, err
	}
	return true, b.client.HSet(ctx, key, id, updated).Err()
}

func (b *RedisInbox) MarkAllRead(ctx context.Context, sessionID string) (int, error) {
	items, err := b.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	values := []any{}
	for id, n := range items {
		if n.Read {
			continue
		}
		n.Read = true
		raw, err := json.Marshal(n)
		if err != nil {
			return 0, err
		}
		values = append(values, id, raw)
	}
	if len(values) == 0 {
		return 0, nil
	}
	if err := b.client.HSet(ctx, inboxKeyPrefix+sessionID, values...).Err(); err != nil {
		return 0, err
	}
	return len(values) / 2, nil
}

func (b *RedisInbox) UnreadCount(ctx context.Context, sessionID string) (int, error) {
	items, err := b.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return countUnread(items), nil
}

func (b *RedisInbox) Drop(ctx context.Context, sessionID string) error {
	return b.client.Del(ctx, inboxKeyPrefix+sessionID).Err()
}
