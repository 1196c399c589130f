package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/notification"
)

// Inbox holds the synthetic notifications emitted to each session together
// with their read state. It must live wherever the Tracker lives, otherwise a
// notification can be marked as seen without ever being listed.
type Inbox interface {
	// Add stores items not already in the session's inbox.
	Add(ctx context.Context, sess Session, items ...notification.Notification) error
	// List returns the session's notifications newest first.
	List(ctx context.Context, sessionID string) ([]notification.Notification, error)
	// MarkRead reports whether id belongs to the session.
	MarkRead(ctx context.Context, sessionID, id string) (bool, error)
	MarkAllRead(ctx context.Context, sessionID string) (int, error)
	UnreadCount(ctx context.Context, sessionID string) (int, error)
	Drop(ctx context.Context, sessionID string) error
}

type box struct {
	items     map[string]notification.Notification
	expiresAt time.Time
}

type MemoryInbox struct {
	mu       sync.RWMutex
	sessions map[string]*box
}

func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{
		sessions: make(map[string]*box),
	}
}

func (b *MemoryInbox) Add(_ context.Context, sess Session, items ...notification.Notification) error {
	if len(items) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	bx, ok := b.sessions[sess.ID]
	if !ok {
		bx = &box{items: make(map[string]notification.Notification)}
		b.sessions[sess.ID] = bx
	}
	if sess.ExpiresAt.After(bx.expiresAt) {
		bx.expiresAt = sess.ExpiresAt
	}
	for _, n := range items {
		if _, exists := bx.items[n.ID]; exists {
			continue
		}
		bx.items[n.ID] = n
	}
	return nil
}

func (b *MemoryInbox) List(_ context.Context, sessionID string) ([]notification.Notification, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []notification.Notification{}
	if bx, ok := b.sessions[sessionID]; ok {
		for _, n := range bx.items {
			out = append(out, n)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (b *MemoryInbox) MarkRead(_ context.Context, sessionID, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bx, ok := b.sessions[sessionID]
	if !ok {
		return false, nil
	}
	n, ok := bx.items[id]
	if !ok {
		return false, nil
	}
	n.Read = true
	bx.items[id] = n
	return true, nil
}

func (b *MemoryInbox) MarkAllRead(_ context.Context, sessionID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bx, ok := b.sessions[sessionID]
	if !ok {
		return 0, nil
	}
	marked := 0
	for id, n := range bx.items {
		if n.Read {
			continue
		}
		n.Read = true
		bx.items[id] = n
		marked++
	}
	return marked, nil
}

func (b *MemoryInbox) UnreadCount(_ context.Context, sessionID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bx, ok := b.sessions[sessionID]
	if !ok {
		return 0, nil
	}
	return countUnread(bx.items), nil
}

func (b *MemoryInbox) Drop(_ context.Context, sessionID string) error {
	b.mu.Lock()
	delete(b.sessions, sessionID)
	b.mu.Unlock()
	return nil
}

// Sweep drops sessions whose expiry is not after now.
func (b *MemoryInbox) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for id, bx := range b.sessions {
		if !bx.expiresAt.After(now) {
			delete(b.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (b *MemoryInbox) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

func sortNewestFirst(out []notification.Notification) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func countUnread(items map[string]notification.Notification) int {
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count
}
