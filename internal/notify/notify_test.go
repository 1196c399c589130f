package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess1 = Session{ID: "s1", ExpiresAt: time.Now().Add(time.Hour)}

// --------------------- MemoryTracker ---------------------
func TestMemoryTracker_MarkIfNew(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	fresh, err := tr.MarkIfNew(ctx, sess1, "7-expire")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, _ = tr.MarkIfNew(ctx, sess1, "7-expire")
	assert.False(t, fresh)

	// other sessions are independent
	fresh, _ = tr.MarkIfNew(ctx, Session{ID: "s2"}, "7-expire")
	assert.True(t, fresh)

	require.NoError(t, tr.Reset(ctx, "s1"))
	fresh, _ = tr.MarkIfNew(ctx, sess1, "7-expire")
	assert.True(t, fresh)
}

func TestMemoryTracker_Concurrent(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	emitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := tr.MarkIfNew(ctx, Session{ID: "s"}, "1-status-approved"); ok {
				mu.Lock()
				emitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, emitted)
}

func TestMemoryTracker_SweepDropsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	tr := NewMemoryTracker()

	_, _ = tr.MarkIfNew(ctx, Session{ID: "expired", ExpiresAt: now.Add(-time.Minute)}, "1-expire")
	_, _ = tr.MarkIfNew(ctx, Session{ID: "live", ExpiresAt: now.Add(time.Hour)}, "1-expire")
	require.Equal(t, 2, tr.Len())

	assert.Equal(t, 1, tr.Sweep(now))
	assert.Equal(t, 1, tr.Len())

	// a dropped session starts over, a live one still dedups
	fresh, _ := tr.MarkIfNew(ctx, Session{ID: "expired", ExpiresAt: now.Add(time.Hour)}, "1-expire")
	assert.True(t, fresh)
	fresh, _ = tr.MarkIfNew(ctx, Session{ID: "live", ExpiresAt: now.Add(time.Hour)}, "1-expire")
	assert.False(t, fresh)
}

func TestMemoryTracker_ExpiryOnlyMovesForward(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	tr := NewMemoryTracker()

	_, _ = tr.MarkIfNew(ctx, Session{ID: "s", ExpiresAt: now.Add(time.Hour)}, "1-expire")
	_, _ = tr.MarkIfNew(ctx, Session{ID: "s", ExpiresAt: now.Add(-time.Hour)}, "2-expire")

	assert.Equal(t, 0, tr.Sweep(now))
	assert.Equal(t, 1, tr.Sweep(now.Add(2*time.Hour)))
}

// --------------------- MemoryInbox ---------------------
func TestMemoryInbox_ReadState(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewMemoryInbox()
	require.NoError(t, b.Add(ctx, sess1,
		notification.Notification{ID: "1-expire", CreatedAt: now.Add(-time.Hour)},
		notification.Notification{ID: "2-status-denied", CreatedAt: now},
	))
	require.NoError(t, b.Add(ctx, sess1, notification.Notification{ID: "1-expire", CreatedAt: now, Read: true}))

	list, err := b.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2-status-denied", list[0].ID)
	assert.False(t, list[1].Read)
	unread, _ := b.UnreadCount(ctx, "s1")
	assert.Equal(t, 2, unread)

	ok, _ := b.MarkRead(ctx, "s1", "1-expire")
	assert.True(t, ok)
	ok, _ = b.MarkRead(ctx, "s1", "1-expire")
	assert.True(t, ok)
	ok, _ = b.MarkRead(ctx, "s1", "missing")
	assert.False(t, ok)
	ok, _ = b.MarkRead(ctx, "s2", "1-expire")
	assert.False(t, ok)
	unread, _ = b.UnreadCount(ctx, "s1")
	assert.Equal(t, 1, unread)

	marked, _ := b.MarkAllRead(ctx, "s1")
	assert.Equal(t, 1, marked)
	unread, _ = b.UnreadCount(ctx, "s1")
	assert.Equal(t, 0, unread)

	require.NoError(t, b.Drop(ctx, "s1"))
	list, _ = b.List(ctx, "s1")
	assert.Empty(t, list)
	assert.Equal(t, 0, b.Len())
}

func TestMemoryInbox_EmptySession(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryInbox()
	list, err := b.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	marked, _ := b.MarkAllRead(ctx, "nobody")
	assert.Equal(t, 0, marked)
	require.NoError(t, b.Add(ctx, Session{ID: "nobody"}))
	assert.Equal(t, 0, b.Len())
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Add(ctx, Session{ID: "s"}, notification.Notification{ID: fmt.Sprintf("%d-expire", i)}))
	}
	unread, _ := b.UnreadCount(ctx, "s")
	assert.Equal(t, 3, unread)
}

func TestMemoryInbox_SweepDropsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	b := NewMemoryInbox()

	require.NoError(t, b.Add(ctx, Session{ID: "expired", ExpiresAt: now}, notification.Notification{ID: "1-expire"}))
	require.NoError(t, b.Add(ctx, Session{ID: "live", ExpiresAt: now.Add(time.Minute)}, notification.Notification{ID: "1-expire"}))

	assert.Equal(t, 1, b.Sweep(now))
	list, _ := b.List(ctx, "expired")
	assert.Empty(t, list)
	list, _ = b.List(ctx, "live")
	assert.Len(t, list, 1)
}
