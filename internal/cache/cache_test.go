package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnknownKey(t *testing.T) {
	s := NewStore()

	_, ok := s.Get(Key("nope"))
	assert.False(t, ok)
}

func TestRefreshStoresValue(t *testing.T) {
	s := NewStore()
	s.Register(KeyUsers, func(ctx context.Context) (interface{}, error) {
		return []string{"ada", "bob"}, nil
	})

	// Registered but never fetched: stale, no value
	entry, ok := s.Get(KeyUsers)
	require.True(t, ok)
	assert.True(t, entry.Stale)
	assert.False(t, entry.HasValue())

	fired := s.Refresh(context.Background(), KeyUsers)
	require.True(t, fired)

	entry, ok = s.Get(KeyUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"ada", "bob"}, entry.Value)
	assert.False(t, entry.Stale)
	assert.True(t, entry.HasValue())
	assert.NoError(t, entry.Err)
}

func TestRefreshFailureRetainsStaleValue(t *testing.T) {
	s := NewStore()

	var fail atomic.Bool
	s.Register(KeyConnections, func(ctx context.Context) (interface{}, error) {
		if fail.Load() {
			return nil, errors.New("server unavailable")
		}
		return 42, nil
	})

	require.True(t, s.Refresh(context.Background(), KeyConnections))

	fail.Store(true)
	require.True(t, s.Refresh(context.Background(), KeyConnections))

	// Previous value survives the failed fetch; only the error flag flips.
	entry, ok := s.Get(KeyConnections)
	require.True(t, ok)
	assert.Equal(t, 42, entry.Value)
	assert.Error(t, entry.Err)

	// A later success clears the error
	fail.Store(false)
	require.True(t, s.Refresh(context.Background(), KeyConnections))
	entry, _ = s.Get(KeyConnections)
	assert.NoError(t, entry.Err)
}

func TestRefreshDroppedWhileInFlight(t *testing.T) {
	s := NewStore()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	s.Register(KeyMessages, func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		close(started)
		<-release
		return "data", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, s.Refresh(context.Background(), KeyMessages))
	}()

	<-started
	assert.True(t, s.InFlight(KeyMessages))

	// Second refresh while the first is in flight is dropped, not queued
	assert.False(t, s.Refresh(context.Background(), KeyMessages))

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.InFlight(KeyMessages))
}

func TestInvalidateWhileInFlightCoalesces(t *testing.T) {
	s := NewStore()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	s.Register(KeyUsers, func(ctx context.Context) (interface{}, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return int(n), nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Refresh(context.Background(), KeyUsers)
	}()

	<-started

	// Three invalidations land while the fetch is in flight. They must
	// coalesce into exactly one follow-up fetch.
	s.Invalidate(context.Background(), KeyUsers)
	s.Invalidate(context.Background(), KeyUsers)
	s.Invalidate(context.Background(), KeyUsers)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())

	entry, _ := s.Get(KeyUsers)
	assert.Equal(t, 2, entry.Value)
	assert.False(t, entry.Stale)
}

func TestInvalidateIdleKeyRefetchesImmediately(t *testing.T) {
	s := NewStore()

	var calls atomic.Int32
	s.Register(KeySystemStats, func(ctx context.Context) (interface{}, error) {
		return int(calls.Add(1)), nil
	})

	require.True(t, s.Refresh(context.Background(), KeySystemStats))
	s.Invalidate(context.Background(), KeySystemStats)

	assert.Equal(t, int32(2), calls.Load())
	entry, _ := s.Get(KeySystemStats)
	assert.Equal(t, 2, entry.Value)
}

func TestUnregisterMidFetchDropsResult(t *testing.T) {
	s := NewStore()

	started := make(chan struct{})
	release := make(chan struct{})
	key := ConnectionMessagesKey("c1")

	s.Register(key, func(ctx context.Context) (interface{}, error) {
		close(started)
		<-release
		return "late", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Refresh(context.Background(), key)
	}()

	<-started
	// Detail view closed: scoped key dropped while its fetch is running
	s.Unregister(key)
	close(release)
	wg.Wait()

	_, ok := s.Get(key)
	assert.False(t, ok)
}

func TestConnectionMessagesKey(t *testing.T) {
	assert.Equal(t, Key("connections/c7/messages"), ConnectionMessagesKey("c7"))
}

func TestPollerRefreshAll(t *testing.T) {
	store := NewStore()
	sched := NewScheduler(time.Hour) // long period: only RefreshAll fires

	var users, conns atomic.Int32
	store.Register(KeyUsers, func(ctx context.Context) (interface{}, error) {
		return int(users.Add(1)), nil
	})
	store.Register(KeyConnections, func(ctx context.Context) (interface{}, error) {
		return int(conns.Add(1)), nil
	})

	p := NewPoller(sched, store)
	p.RefreshAll(context.Background())

	assert.Equal(t, int32(1), users.Load())
	assert.Equal(t, int32(1), conns.Load())

	// Both keys were just fired, so neither is due
	assert.Empty(t, sched.DueKeys(store.Keys(), time.Now()))
}

func TestPollerRunRespectsCancellation(t *testing.T) {
	store := NewStore()
	sched := NewScheduler(10 * time.Millisecond)

	var calls atomic.Int32
	store.Register(KeyMessages, func(ctx context.Context) (interface{}, error) {
		return int(calls.Add(1)), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPoller(sched, store).Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}
