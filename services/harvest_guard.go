package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrHarvestAlreadyRunning = errors.New("harvest already running")
)

// HarvestGuard admits one harvest at a time. Every trigger (scheduler, API,
// CLI) acquires the same guard before a run starts.
type HarvestGuard struct {
	mu        sync.Mutex
	active    bool
	trigger   string
	startedAt time.Time
	done      chan struct{}
}

func NewHarvestGuard() *HarvestGuard {
	return &HarvestGuard{}
}

// Acquire marks a run as active. The returned release is safe to call more
// than once.
func (g *HarvestGuard) Acquire(trigger string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return nil, ErrHarvestAlreadyRunning
	}
	g.active = true
	g.trigger = trigger
	g.startedAt = time.Now()
	done := make(chan struct{})
	g.done = done

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.active = false
			g.trigger = ""
			g.startedAt = time.Time{}
			close(done)
		})
	}, nil
}

func (g *HarvestGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Current describes the active run, if any.
func (g *HarvestGuard) Current() (trigger string, startedAt time.Time, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.trigger, g.startedAt, g.active
}

// Wait blocks until no run is active or ctx is done.
func (g *HarvestGuard) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.active {
			g.mu.Unlock()
			return nil
		}
		done := g.done
		g.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
