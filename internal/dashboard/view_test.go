package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqdash/mqdash/internal/cache"
)

func TestRenderDashboard_Overview(t *testing.T) {
	f := newFixture(t)

	out := f.model.View()
	assert.Contains(t, out, "mqdash")
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "Top topics")
	assert.Contains(t, out, "sensors/temp")
	assert.Contains(t, out, "Value trend")
}

func TestRenderDashboard_UsersTab(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabUsers

	out := f.model.View()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "admin")
}

func TestRenderDashboard_ConnectionsTab(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabConnections

	out := f.model.View()
	assert.Contains(t, out, "plant-floor")
	assert.Contains(t, out, "lab-bench")
	assert.Contains(t, out, StatusConnected)
	assert.Contains(t, out, StatusDisconnected)
}

func TestRenderDashboard_MessagesTab(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabMessages

	out := f.model.View()
	assert.Contains(t, out, "Messages (3)")
	assert.Contains(t, out, "lab/status")
}

func TestRenderDashboard_PendingGlyph(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabConnections

	// Hold a connect in flight so the pending indicator renders
	conns, _ := f.model.connections()
	require.NotEmpty(t, conns)

	// No pending op: the row shows the server-confirmed state
	out := f.model.View()
	assert.NotContains(t, out, PendingSpinnerFrames[0])
}

func TestRenderDashboard_ConfirmOverlay(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabMessages
	f.model.HandleKeyMsg(keyMsg("x"))

	out := f.model.View()
	assert.Contains(t, out, "Clear all messages?")
	assert.Contains(t, out, "confirm")
}

func TestRenderDashboard_HelpOverlay(t *testing.T) {
	f := newFixture(t)
	f.model.HandleKeyMsg(keyMsg("?"))

	out := f.model.View()
	assert.Contains(t, out, "Keys")
	assert.Contains(t, out, "connect or disconnect")
}

func TestRenderDashboard_DetailView(t *testing.T) {
	f := newFixture(t)
	f.model.tab = TabConnections
	f.model.selected[TabConnections] = 0

	// Size the viewport, then open detail and run its initial refresh
	updated, _ := f.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	f.model = updated.(Model)
	cmd := f.model.openDetail(*f.model.selectedConnection())
	require.NotNil(t, cmd)
	cmd()
	f.model.updateDetailContent()

	out := f.model.View()
	assert.Contains(t, out, "plant-floor")
	assert.Contains(t, out, "mqtts://broker.example.com:8883")
	assert.Contains(t, out, "connected")
}

func TestRenderDashboard_StaleMarker(t *testing.T) {
	f := newFixture(t)

	// First fetch succeeds, second fails: the panel keeps the old rows and
	// flags them stale
	calls := 0
	f.store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, fmt.Errorf("server unavailable (call %d)", calls)
	})
	require.True(t, f.store.Refresh(context.Background(), cache.KeyUsers))

	f.model.tab = TabUsers
	out := f.model.View()
	assert.Contains(t, out, "alice", "stale data should still render")
	assert.Contains(t, out, "(stale)")
}

func TestRenderDashboard_LoadingState(t *testing.T) {
	store := cache.NewStore()
	store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) { return nil, nil })
	scheduler := cache.NewScheduler(time.Second)
	f := newFixture(t)
	m := NewModel(f.model.client, store, scheduler, f.model.coord, 5, 50)
	m.tab = TabUsers

	out := m.View()
	assert.Contains(t, out, "Loading users")
}

func TestRenderFooter_FilterHint(t *testing.T) {
	f := newFixture(t)
	f.model.search.SetValue("temp")

	out := f.model.renderFooter()
	assert.Contains(t, out, `"temp"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "long…", truncate("longer", 5))
	assert.Equal(t, "…", truncate("xy", 1))
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", formatAge(now.Add(-30*time.Second)))
	assert.Equal(t, "5m ago", formatAge(now.Add(-5*time.Minute)))
	assert.Equal(t, "3h ago", formatAge(now.Add(-3*time.Hour)))
	assert.Equal(t, "2d ago", formatAge(now.Add(-49*time.Hour)))
}
