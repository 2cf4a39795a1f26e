package cache

import (
	"context"
	"sync"
	"time"
)

// tickResolution is how often the poller checks for due keys. It only bounds
// scheduling latency; actual refresh periods come from the Scheduler.
const tickResolution = 250 * time.Millisecond

// Poller drives a Store from a Scheduler. Refreshes for independent keys run
// concurrently; the Store itself serializes per-key fetches.
type Poller struct {
	store     *Scheduler
	resources *Store
}

// NewPoller ties a scheduler to a store.
func NewPoller(scheduler *Scheduler, store *Store) *Poller {
	return &Poller{store: scheduler, resources: store}
}

// Run polls until the context is cancelled. It blocks; run it in a goroutine
// when the caller has other work. In-flight fetches are given to the next
// poll cycle to finish naturally.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(tickResolution)
	defer ticker.Stop()

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			now := time.Now()
			for _, key := range p.store.DueKeys(p.resources.Keys(), now) {
				p.store.MarkFired(key, now)
				wg.Add(1)
				go func(key Key) {
					defer wg.Done()
					p.resources.Refresh(ctx, key)
				}(key)
			}
		}
	}
}

// RefreshAll fires one synchronous refresh for every registered key,
// regardless of due times. Used to warm the cache before first render.
func (p *Poller) RefreshAll(ctx context.Context) {
	now := time.Now()
	for _, key := range p.resources.Keys() {
		p.store.MarkFired(key, now)
		p.resources.Refresh(ctx, key)
	}
}
