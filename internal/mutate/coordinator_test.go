package mutate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/errors"
)

// fakeAPI records calls and lets tests hook into the middle of a mutation.
type fakeAPI struct {
	createCalls     int
	updateCalls     int
	deleteCalls     int
	connectCalls    int
	disconnectCalls int
	publishCalls    int
	clearCalls      int

	err       error
	onConnect func()
}

func (f *fakeAPI) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	f.createCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.User{ID: "u-new", Username: req.Username, Role: req.Role}, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id string, req api.UpdateUserRequest) (*api.User, error) {
	f.updateCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.User{ID: id, Username: req.Username}, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id string) error {
	f.deleteCalls++
	return f.err
}

func (f *fakeAPI) Connect(ctx context.Context, id string) error {
	f.connectCalls++
	if f.onConnect != nil {
		f.onConnect()
	}
	return f.err
}

func (f *fakeAPI) Disconnect(ctx context.Context, id string) error {
	f.disconnectCalls++
	return f.err
}

func (f *fakeAPI) Publish(ctx context.Context, connectionID string, req api.PublishRequest) error {
	f.publishCalls++
	return f.err
}

func (f *fakeAPI) ClearMessages(ctx context.Context) error {
	f.clearCalls++
	return f.err
}

// seedStore registers and primes the standard keys with the given values.
func seedStore(t *testing.T, users []api.User, conns []api.Connection) (*cache.Store, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	store := cache.NewStore()

	var userFetches, connFetches atomic.Int32
	store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) {
		userFetches.Add(1)
		return users, nil
	})
	store.Register(cache.KeyConnections, func(ctx context.Context) (interface{}, error) {
		connFetches.Add(1)
		return conns, nil
	})
	store.Register(cache.KeyMessages, func(ctx context.Context) (interface{}, error) {
		return []api.Message{}, nil
	})

	require.True(t, store.Refresh(context.Background(), cache.KeyUsers))
	require.True(t, store.Refresh(context.Background(), cache.KeyConnections))
	userFetches.Store(0)
	connFetches.Store(0)
	return store, &userFetches, &connFetches
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   api.CreateUserRequest
		field string
	}{
		{"missing username", api.CreateUserRequest{Password: "pw"}, "username"},
		{"blank username", api.CreateUserRequest{Username: "  ", Password: "pw"}, "username"},
		{"missing password", api.CreateUserRequest{Username: "ada"}, "password"},
		{"bad role", api.CreateUserRequest{Username: "ada", Password: "pw", Role: "root"}, "role"},
		{"bad email", api.CreateUserRequest{Username: "ada", Password: "pw", Email: "nope"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAPI{}
			store, _, _ := seedStore(t, nil, nil)
			c := NewCoordinator(f, store, nil)

			_, err := c.CreateUser(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrValidation))
			assert.Equal(t, tt.field, errors.FieldOf(err))
			assert.Zero(t, f.createCalls, "validation errors must not reach the network")
		})
	}
}

func TestCreateUserInvalidatesUsers(t *testing.T) {
	f := &fakeAPI{}
	store, userFetches, _ := seedStore(t, nil, nil)
	c := NewCoordinator(f, store, nil)

	user, err := c.CreateUser(context.Background(), api.CreateUserRequest{
		Username: "ada",
		Password: "correct horse",
		Role:     api.RoleAdmin,
	})

	require.NoError(t, err)
	assert.Equal(t, "u-new", user.ID)
	assert.Equal(t, 1, f.createCalls)
	assert.Equal(t, int32(1), userFetches.Load(), "users key refetched after create")
}

func TestCreateUserFailureLeavesCacheAlone(t *testing.T) {
	f := &fakeAPI{err: errors.New(errors.ErrRequest, "server down", "")}
	store, userFetches, _ := seedStore(t, nil, nil)
	c := NewCoordinator(f, store, nil)

	_, err := c.CreateUser(context.Background(), api.CreateUserRequest{Username: "ada", Password: "pw"})

	require.Error(t, err)
	assert.Zero(t, userFetches.Load(), "failed mutation must not invalidate")
}

func TestDeleteLastAdminBlockedPreemptively(t *testing.T) {
	f := &fakeAPI{}
	users := []api.User{
		{ID: "u1", Username: "ada", Role: api.RoleAdmin},
		{ID: "u2", Username: "bob", Role: api.RoleUser},
	}
	store, _, _ := seedStore(t, users, nil)
	c := NewCoordinator(f, store, nil)

	err := c.DeleteUser(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConflict))
	assert.Zero(t, f.deleteCalls, "blocked before any request is sent")
}

func TestDeleteAdminAllowedWhenAnotherExists(t *testing.T) {
	f := &fakeAPI{}
	users := []api.User{
		{ID: "u1", Role: api.RoleAdmin},
		{ID: "u2", Role: api.RoleAdmin},
	}
	store, userFetches, connFetches := seedStore(t, users, nil)
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.DeleteUser(context.Background(), "u1"))

	assert.Equal(t, 1, f.deleteCalls)
	// Cascade: users, connections, and messages all refetch
	assert.Equal(t, int32(1), userFetches.Load())
	assert.Equal(t, int32(1), connFetches.Load())
}

func TestDeleteUserWithColdCacheDefersToServer(t *testing.T) {
	// No cached users: the client-side guard cannot run, the server decides.
	f := &fakeAPI{}
	store := cache.NewStore()
	store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) {
		return []api.User{}, nil
	})
	store.Register(cache.KeyConnections, func(ctx context.Context) (interface{}, error) {
		return []api.Connection{}, nil
	})
	store.Register(cache.KeyMessages, func(ctx context.Context) (interface{}, error) {
		return []api.Message{}, nil
	})
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.DeleteUser(context.Background(), "u1"))
	assert.Equal(t, 1, f.deleteCalls)
}

func TestConnectAlreadyConnectedIsNoop(t *testing.T) {
	f := &fakeAPI{}
	conns := []api.Connection{{ID: "c1", IsConnected: true}}
	store, _, connFetches := seedStore(t, nil, conns)
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.Connect(context.Background(), "c1"))

	assert.Zero(t, f.connectCalls, "connect on connected connection is a no-op")
	assert.Zero(t, connFetches.Load())
}

func TestDisconnectAlreadyDisconnectedIsNoop(t *testing.T) {
	f := &fakeAPI{}
	conns := []api.Connection{{ID: "c1", IsConnected: false}}
	store, _, _ := seedStore(t, nil, conns)
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.Disconnect(context.Background(), "c1"))
	assert.Zero(t, f.disconnectCalls)
}

func TestConnectSuppressesPollingWhileInFlight(t *testing.T) {
	conns := []api.Connection{{ID: "c1", IsConnected: false}}
	store, _, _ := seedStore(t, nil, conns)
	sched := cache.NewScheduler(time.Second)

	var suppressedMidFlight, pendingMidFlight bool
	f := &fakeAPI{}
	c := NewCoordinator(f, store, sched)
	f.onConnect = func() {
		suppressedMidFlight = sched.Suppressed(cache.KeyConnections, time.Now())
		_, pendingMidFlight = c.Pending("c1")
	}

	require.NoError(t, c.Connect(context.Background(), "c1"))

	assert.True(t, suppressedMidFlight, "connections polling pauses during the mutation")
	assert.True(t, pendingMidFlight, "pending indicator shows while in flight")

	// Gate released and due immediately once the mutation resolves
	assert.False(t, sched.Suppressed(cache.KeyConnections, time.Now()))
	assert.True(t, sched.Due(cache.KeyConnections, time.Now()))

	_, stillPending := c.Pending("c1")
	assert.False(t, stillPending)
}

func TestConnectInvalidatesConnectionsAndOpenDetailFeed(t *testing.T) {
	conns := []api.Connection{{ID: "c1", IsConnected: false}}
	store, _, connFetches := seedStore(t, nil, conns)

	// Detail view open: scoped feed registered
	var scopedFetches atomic.Int32
	scoped := cache.ConnectionMessagesKey("c1")
	store.Register(scoped, func(ctx context.Context) (interface{}, error) {
		scopedFetches.Add(1)
		return []api.Message{}, nil
	})

	f := &fakeAPI{}
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.Connect(context.Background(), "c1"))

	assert.Equal(t, 1, f.connectCalls)
	assert.Equal(t, int32(1), connFetches.Load())
	assert.Equal(t, int32(1), scopedFetches.Load())
}

func TestConnectFailureSkipsInvalidation(t *testing.T) {
	conns := []api.Connection{{ID: "c1", IsConnected: false}}
	store, _, connFetches := seedStore(t, nil, conns)

	f := &fakeAPI{err: errors.New(errors.ErrRequest, "broker unreachable", "")}
	c := NewCoordinator(f, store, nil)

	err := c.Connect(context.Background(), "c1")

	require.Error(t, err)
	assert.Zero(t, connFetches.Load())
	_, pending := c.Pending("c1")
	assert.False(t, pending, "pending cleared after failure")
}

func TestPublishValidation(t *testing.T) {
	f := &fakeAPI{}
	store, _, _ := seedStore(t, nil, nil)
	c := NewCoordinator(f, store, nil)

	err := c.Publish(context.Background(), "c1", api.PublishRequest{})
	require.Error(t, err)
	assert.Equal(t, "topic", errors.FieldOf(err))

	err = c.Publish(context.Background(), "c1", api.PublishRequest{Topic: "t", QoS: 3})
	require.Error(t, err)
	assert.Equal(t, "qos", errors.FieldOf(err))

	assert.Zero(t, f.publishCalls)
}

func TestPublishIsFireAndForget(t *testing.T) {
	f := &fakeAPI{}
	store, _, connFetches := seedStore(t, nil, nil)
	var msgFetches atomic.Int32
	store.Register(cache.KeyMessages, func(ctx context.Context) (interface{}, error) {
		msgFetches.Add(1)
		return []api.Message{}, nil
	})
	c := NewCoordinator(f, store, nil)

	require.NoError(t, c.Publish(context.Background(), "c1", api.PublishRequest{
		Topic:   "sensors/temp",
		Payload: `{"temperature": 21.5}`,
	}))

	assert.Equal(t, 1, f.publishCalls)
	// No local injection, no invalidation: the message arrives via polling
	assert.Zero(t, msgFetches.Load())
	assert.Zero(t, connFetches.Load())
}

func TestClearMessagesInvalidatesNetworkWide(t *testing.T) {
	f := &fakeAPI{}
	store, _, _ := seedStore(t, nil, nil)

	var msgFetches, scopedFetches atomic.Int32
	store.Register(cache.KeyMessages, func(ctx context.Context) (interface{}, error) {
		msgFetches.Add(1)
		return []api.Message{}, nil
	})
	store.Register(cache.ConnectionMessagesKey("c1"), func(ctx context.Context) (interface{}, error) {
		scopedFetches.Add(1)
		return []api.Message{}, nil
	})

	c := NewCoordinator(f, store, nil)
	require.NoError(t, c.ClearMessages(context.Background()))

	assert.Equal(t, 1, f.clearCalls)
	assert.Equal(t, int32(1), msgFetches.Load())
	assert.Equal(t, int32(1), scopedFetches.Load(), "open scoped feeds refetch too")
}

func TestUpdateUserValidation(t *testing.T) {
	f := &fakeAPI{}
	store, _, _ := seedStore(t, nil, nil)
	c := NewCoordinator(f, store, nil)

	_, err := c.UpdateUser(context.Background(), "", api.UpdateUserRequest{})
	require.Error(t, err)
	assert.Equal(t, "id", errors.FieldOf(err))

	_, err = c.UpdateUser(context.Background(), "u1", api.UpdateUserRequest{Role: "superuser"})
	require.Error(t, err)
	assert.Equal(t, "role", errors.FieldOf(err))

	assert.Zero(t, f.updateCalls)
}
