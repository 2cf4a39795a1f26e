// Package mutate issues state-changing requests against the admin API and
// reconciles them with the resource cache. There is no optimistic merge:
// a mutation is done when the server confirms it and the invalidated keys
// have been refetched. Until then the UI shows an in-flight indicator, never
// a guessed value.
package mutate

import (
	"context"
	"strings"
	"sync"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/errors"
	"github.com/mqdash/mqdash/internal/logger"
)

// API is the slice of the admin client the coordinator drives.
type API interface {
	CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error)
	UpdateUser(ctx context.Context, id string, req api.UpdateUserRequest) (*api.User, error)
	DeleteUser(ctx context.Context, id string) error
	Connect(ctx context.Context, id string) error
	Disconnect(ctx context.Context, id string) error
	Publish(ctx context.Context, connectionID string, req api.PublishRequest) error
	ClearMessages(ctx context.Context) error
}

// PendingKind names the in-flight operation on a connection.
type PendingKind string

const (
	PendingConnect    PendingKind = "connect"
	PendingDisconnect PendingKind = "disconnect"
)

// Coordinator serializes mutations and owns their cache invalidation.
type Coordinator struct {
	api       API
	store     *cache.Store
	scheduler *cache.Scheduler
	log       logger.Logger

	mu      sync.Mutex
	pending map[string]PendingKind // connection id -> in-flight op
}

// NewCoordinator creates a coordinator over the given API, store, and
// scheduler. The scheduler may be nil when no polling is running (one-shot
// CLI commands).
func NewCoordinator(client API, store *cache.Store, scheduler *cache.Scheduler) *Coordinator {
	return &Coordinator{
		api:       client,
		store:     store,
		scheduler: scheduler,
		log:       logger.NewEnvLogger("[mutate]"),
	}
}

// SetLogger replaces the coordinator's logger.
func (c *Coordinator) SetLogger(log logger.Logger) {
	c.log = log
}

// CreateUser validates and creates a user, then invalidates the users key.
// Validation failures never reach the network.
func (c *Coordinator) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, errors.NewValidation("username", "Username is required")
	}
	if req.Password == "" {
		return nil, errors.NewValidation("password", "Password is required")
	}
	if err := validRole(req.Role); err != nil {
		return nil, err
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		return nil, errors.NewValidation("email", "Email address is not valid")
	}

	user, err := c.api.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	c.store.Invalidate(ctx, cache.KeyUsers)
	c.log.Debug("created user %s", user.ID)
	return user, nil
}

// UpdateUser validates and applies a partial user update, then invalidates
// the users key.
func (c *Coordinator) UpdateUser(ctx context.Context, id string, req api.UpdateUserRequest) (*api.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidation("id", "User id is required")
	}
	if err := validRole(req.Role); err != nil {
		return nil, err
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		return nil, errors.NewValidation("email", "Email address is not valid")
	}

	user, err := c.api.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}

	c.store.Invalidate(ctx, cache.KeyUsers)
	return user, nil
}

// DeleteUser removes a user. The server cascades the delete to the user's
// connections and messages, so those keys are invalidated too and any stale
// references must be treated as unknown until the next fetch.
//
// Deleting the last remaining admin is blocked preemptively using the cached
// admin count. The block is a courtesy, not the authority; the server
// enforces the same invariant and surfaces ConflictError when the cache was
// out of date.
func (c *Coordinator) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidation("id", "User id is required")
	}

	if target, admins, ok := c.cachedAdminCount(id); ok {
		if target != nil && target.Role == api.RoleAdmin && admins <= 1 {
			return errors.New(errors.ErrConflict,
				"Cannot delete the last admin user",
				"Promote another user to admin first")
		}
	}

	if err := c.api.DeleteUser(ctx, id); err != nil {
		return err
	}

	c.store.Invalidate(ctx, cache.KeyUsers)
	c.store.Invalidate(ctx, cache.KeyConnections)
	c.store.Invalidate(ctx, cache.KeyMessages)
	return nil
}

// Connect opens a broker connection. Calling it on an already-connected
// connection is a no-op success. IsConnected is never flipped locally; the
// pending state is the only client-visible change until the next refresh.
func (c *Coordinator) Connect(ctx context.Context, id string) error {
	return c.setConnected(ctx, id, true)
}

// Disconnect closes a broker connection. Calling it on an already
// disconnected connection is a no-op success.
func (c *Coordinator) Disconnect(ctx context.Context, id string) error {
	return c.setConnected(ctx, id, false)
}

func (c *Coordinator) setConnected(ctx context.Context, id string, want bool) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidation("id", "Connection id is required")
	}

	if conn := c.cachedConnection(id); conn != nil && conn.IsConnected == want {
		return nil
	}

	kind := PendingConnect
	if !want {
		kind = PendingDisconnect
	}
	if !c.markPending(id, kind) {
		// Same operation already in flight: treat as the idempotent no-op
		return nil
	}
	defer c.clearPending(id)

	if c.scheduler != nil {
		c.scheduler.Suppress(cache.KeyConnections, cache.SuppressMutation)
		defer c.scheduler.Release(cache.KeyConnections, cache.SuppressMutation)
	}

	var err error
	if want {
		err = c.api.Connect(ctx, id)
	} else {
		err = c.api.Disconnect(ctx, id)
	}
	if err != nil {
		return err
	}

	c.store.Invalidate(ctx, cache.KeyConnections)
	// A detail view for this connection keeps scoped keys registered;
	// refresh those too so its message feed reflects the state change.
	scoped := cache.ConnectionMessagesKey(id)
	if _, ok := c.store.Get(scoped); ok {
		c.store.Invalidate(ctx, scoped)
	}
	return nil
}

// Publish sends a message through a connection. Fire-and-forget from the
// cache's perspective: the message id and ordering are server-assigned, so
// nothing is injected locally and no key is invalidated. The message shows
// up via the next messages poll.
func (c *Coordinator) Publish(ctx context.Context, connectionID string, req api.PublishRequest) error {
	if strings.TrimSpace(connectionID) == "" {
		return errors.NewValidation("connection", "Connection id is required")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return errors.NewValidation("topic", "Topic is required")
	}
	if req.QoS < 0 || req.QoS > 2 {
		return errors.NewValidation("qos", "QoS must be 0, 1, or 2")
	}

	return c.api.Publish(ctx, connectionID, req)
}

// ClearMessages deletes every stored message and invalidates the messages
// key network-wide, including any open connection-scoped feeds. The caller
// is responsible for confirming the destructive action with the operator.
func (c *Coordinator) ClearMessages(ctx context.Context) error {
	if err := c.api.ClearMessages(ctx); err != nil {
		return err
	}

	c.store.Invalidate(ctx, cache.KeyMessages)
	for _, key := range c.store.Keys() {
		if strings.HasPrefix(string(key), "connections/") && strings.HasSuffix(string(key), "/messages") {
			c.store.Invalidate(ctx, key)
		}
	}
	return nil
}

// Pending returns the in-flight operation for a connection, if any. The UI
// renders this as a distinct indicator instead of flipping the boolean
// state ahead of confirmation.
func (c *Coordinator) Pending(id string) (PendingKind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kind, ok := c.pending[id]
	return kind, ok
}

func (c *Coordinator) markPending(id string, kind PendingKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		c.pending = make(map[string]PendingKind)
	}
	if _, ok := c.pending[id]; ok {
		return false
	}
	c.pending[id] = kind
	return true
}

func (c *Coordinator) clearPending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// cachedConnection looks up a connection in the cache. Returns nil when the
// connections key has no value yet.
func (c *Coordinator) cachedConnection(id string) *api.Connection {
	entry, ok := c.store.Get(cache.KeyConnections)
	if !ok || !entry.HasValue() {
		return nil
	}
	conns, ok := entry.Value.([]api.Connection)
	if !ok {
		return nil
	}
	for i := range conns {
		if conns[i].ID == id {
			return &conns[i]
		}
	}
	return nil
}

// cachedAdminCount returns the cached user with the given id and the cached
// count of admins. ok is false when the users key has no usable value, in
// which case the caller must defer entirely to the server.
func (c *Coordinator) cachedAdminCount(id string) (target *api.User, admins int, ok bool) {
	entry, found := c.store.Get(cache.KeyUsers)
	if !found || !entry.HasValue() {
		return nil, 0, false
	}
	users, isUsers := entry.Value.([]api.User)
	if !isUsers {
		return nil, 0, false
	}
	for i := range users {
		if users[i].Role == api.RoleAdmin {
			admins++
		}
		if users[i].ID == id {
			target = &users[i]
		}
	}
	return target, admins, true
}

func validRole(role api.Role) error {
	switch role {
	case "", api.RoleUser, api.RoleAdmin, api.RoleViewer:
		return nil
	default:
		return errors.NewValidation("role", "Role must be user, admin, or viewer")
	}
}
