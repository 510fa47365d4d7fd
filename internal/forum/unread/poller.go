// Package unread keeps the navigation shell's unread notification count
// fresh by polling the forum service.
package unread

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = 30 * time.Second

type Source interface {
	UnreadCount(ctx context.Context) (int64, error)
}

type Poller struct {
	source   Source
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	count    int64
	known    bool
	onChange func(int64)
}

func NewPoller(source Source, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{source: source, interval: interval, log: log}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Count returns the last successfully polled count.
func (p *Poller) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// OnChange registers fn to run after each poll that changes the count.
func (p *Poller) OnChange(fn func(int64)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Set records a count learned elsewhere, e.g. after marking all read.
func (p *Poller) Set(n int64) {
	p.apply(n)
}

// Poll fetches the count once. On error the previous count is kept.
func (p *Poller) Poll(ctx context.Context) error {
	n, err := p.source.UnreadCount(ctx)
	if err != nil {
		p.log.Warn("unread poll failed", zap.Error(err))
		return err
	}
	p.apply(n)
	return nil
}

func (p *Poller) apply(n int64) {
	p.mu.Lock()
	changed := !p.known || p.count != n
	p.count = n
	p.known = true
	fn := p.onChange
	p.mu.Unlock()

	if changed && fn != nil {
		fn(n)
	}
}

// Run polls immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	_ = p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}
