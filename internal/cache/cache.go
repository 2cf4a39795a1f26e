// Package cache implements the client-side resource cache and poll
// scheduling for server-owned collections. Every view reads through this
// cache; nothing else in the client holds server state.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mqdash/mqdash/internal/logger"
)

// Key identifies a server-backed resource tracked by the cache.
type Key string

// Resource keys for the admin API collections.
const (
	KeyUsers          Key = "users"
	KeyConnections    Key = "connections"
	KeyMessages       Key = "messages"
	KeySystemStats    Key = "system-stats"
	KeySecurityEvents Key = "security-events"
	KeyUserActivity   Key = "user-activity"
)

// ConnectionMessagesKey returns the scoped key for one connection's message
// feed, used by detail views.
func ConnectionMessagesKey(connectionID string) Key {
	return Key("connections/" + connectionID + "/messages")
}

// FetchFunc loads the current server value for a key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Entry is a read-only snapshot of one cached resource.
// When Err is non-nil the previous Value is retained (stale-but-available):
// a failed poll must never blank an already-rendered view.
type Entry struct {
	Value     interface{}
	FetchedAt time.Time
	Err       error
	Stale     bool
}

// HasValue reports whether the entry holds at least one successful fetch.
func (e Entry) HasValue() bool {
	return !e.FetchedAt.IsZero()
}

// entry is the internal mutable state for one key.
type entry struct {
	fetch     FetchFunc
	value     interface{}
	fetchedAt time.Time
	err       error
	stale     bool
	inFlight  bool
	dirty     bool // invalidated while a fetch was in flight
}

// Store is the keyed cache of server resources. A key never has two fetches
// in flight at once; extra refresh requests are dropped, and invalidations
// that arrive mid-fetch coalesce into exactly one follow-up fetch.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	log     logger.Logger
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		log:     logger.NewEnvLogger("[cache]"),
	}
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(log logger.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = log
}

// Register binds a fetch function to a key. Registering an already-known key
// replaces its fetcher and keeps any cached value.
func (s *Store) Register(key Key, fetch FetchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.fetch = fetch
		return
	}
	s.entries[key] = &entry{fetch: fetch, stale: true}
}

// Unregister drops a key entirely. Used when a detail view closes and its
// scoped feed should stop being tracked.
func (s *Store) Unregister(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Keys returns all registered keys.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the snapshot for a key. The second return is false for keys
// that were never registered.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Value:     e.value,
		FetchedAt: e.fetchedAt,
		Err:       e.err,
		Stale:     e.stale,
	}, true
}

// Refresh fetches the key's value synchronously. Returns false when the key
// is unknown or a fetch is already in flight (the request is dropped, not
// queued). On failure the previous value is retained and the entry's error
// flag is set; the scheduler retries on its next tick.
func (s *Store) Refresh(ctx context.Context, key Key) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.inFlight {
		s.mu.Unlock()
		return false
	}
	e.inFlight = true
	fetch := e.fetch
	s.mu.Unlock()

	for {
		value, err := fetch(ctx)

		s.mu.Lock()
		// The entry may have been unregistered mid-fetch (detail view
		// closed); drop the result in that case.
		e, ok = s.entries[key]
		if !ok {
			s.mu.Unlock()
			return true
		}
		if err != nil {
			e.err = err
			s.log.Debug("fetch %s failed: %v", key, err)
		} else {
			e.value = value
			e.fetchedAt = time.Now()
			e.err = nil
			e.stale = false
		}
		if e.dirty && ctx.Err() == nil {
			// Invalidated while in flight: run exactly one follow-up fetch.
			e.dirty = false
			e.stale = true
			fetch = e.fetch
			s.mu.Unlock()
			continue
		}
		e.inFlight = false
		s.mu.Unlock()
		return true
	}
}

// Invalidate marks a key stale and triggers an immediate refetch. Concurrent
// invalidations for a key with a fetch in flight coalesce into one follow-up
// fetch rather than stacking requests.
func (s *Store) Invalidate(ctx context.Context, key Key) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.stale = true
	if e.inFlight {
		e.dirty = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.Refresh(ctx, key)
}

// InFlight reports whether a fetch for the key is currently running.
func (s *Store) InFlight(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && e.inFlight
}
