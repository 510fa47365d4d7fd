package inmemory

import (
	"context"
	"sync"
)

type Unread struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewUnread() *Unread {
	return &Unread{counts: make(map[string]int64)}
}

func (u *Unread) Incr(ctx context.Context, viewerID string) (int64, error) {
	_ = ctx
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[viewerID]++
	return u.counts[viewerID], nil
}

func (u *Unread) Count(ctx context.Context, viewerID string) (int64, error) {
	_ = ctx
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[viewerID], nil
}

func (u *Unread) Reset(ctx context.Context, viewerID string) error {
	_ = ctx
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.counts, viewerID)
	return nil
}
