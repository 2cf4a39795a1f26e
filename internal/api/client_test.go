package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqdash/mqdash/internal/errors"
)

func TestListUsers(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/admin/users", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode([]User{
			{ID: "u1", Username: "ada", Role: RoleAdmin, CreatedAt: &created},
			{ID: "u2", Username: "bob", Role: RoleUser},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	users, err := client.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].Username)
	assert.Equal(t, RoleAdmin, users[0].Role)
	require.NotNil(t, users[0].CreatedAt)
	assert.True(t, created.Equal(*users[0].CreatedAt))
	assert.Nil(t, users[1].CreatedAt)
}

func TestCreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "carol", req.Username)
		assert.Equal(t, "hunter2", req.Password)

		json.NewEncoder(w).Encode(User{ID: "u3", Username: req.Username, Role: RoleUser})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	user, err := client.CreateUser(context.Background(), CreateUserRequest{
		Username: "carol",
		Password: "hunter2",
	})

	require.NoError(t, err)
	assert.Equal(t, "u3", user.ID)
}

func TestConnectDisconnectPaths(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotPaths = append(gotPaths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	require.NoError(t, client.Connect(context.Background(), "c1"))
	require.NoError(t, client.Disconnect(context.Background(), "c1"))

	assert.Equal(t, []string{
		"/api/admin/connections/c1/connect",
		"/api/admin/connections/c1/disconnect",
	}, gotPaths)
}

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/connections/c9/publish", r.URL.Path)

		var req PublishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sensors/temp", req.Topic)
		assert.Equal(t, `{"temperature": 21.5}`, req.Payload)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.Publish(context.Background(), "c9", PublishRequest{
		Topic:   "sensors/temp",
		Payload: `{"temperature": 21.5}`,
	})
	require.NoError(t, err)
}

func TestClearMessagesUsesDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/admin/messages/clear", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	require.NoError(t, client.ClearMessages(context.Background()))
}

func TestConflictResponseMapsToConflictError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "at least one admin must exist",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.DeleteUser(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "at least one admin must exist")
}

func TestServerErrorMapsToRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.ListConnections(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRequest))
}

func TestUnreachableServerMapsToRequestError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	client.SetTimeout(200 * time.Millisecond)

	_, err := client.ListMessages(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRequest))
}

func TestSystemStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/system-stats", r.URL.Path)
		json.NewEncoder(w).Encode(SystemStats{
			TotalUsers:        3,
			ActiveConnections: 2,
			MessagesPerMinute: 14.5,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	stats, err := client.SystemStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveConnections)
	assert.InDelta(t, 14.5, stats.MessagesPerMinute, 0.001)
}

func TestConnectionMessagesPathEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/connections/c%2F1/messages", r.URL.EscapedPath())
		json.NewEncoder(w).Encode([]Message{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	msgs, err := client.ConnectionMessages(context.Background(), "c/1")

	require.NoError(t, err)
	assert.Empty(t, msgs)
}
