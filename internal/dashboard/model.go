package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/filter"
	"github.com/mqdash/mqdash/internal/mutate"
)

// tickInterval is how often the model checks the scheduler for due keys.
// Finer than any refresh interval so release-triggered refreshes land fast.
const tickInterval = 250 * time.Millisecond

// spinnerInterval is the animation frame rate for the pending spinner.
const spinnerInterval = 150 * time.Millisecond

// requestTimeout bounds a single background refresh.
const requestTimeout = 10 * time.Second

// Client is the slice of the admin API the dashboard registers scoped
// fetchers through. The base collection fetchers are registered by the
// caller before the program starts.
type Client interface {
	ConnectionMessages(ctx context.Context, connectionID string) ([]api.Message, error)
}

// Model is the Bubble Tea model for the operator dashboard.
type Model struct {
	client    Client
	store     *cache.Store
	scheduler *cache.Scheduler
	coord     *mutate.Coordinator

	tab      Tab
	viewMode ViewMode
	selected map[Tab]int

	search    textinput.Model
	searching bool

	confirmClear bool
	showHelp     bool

	width      int
	height     int
	lastUpdate time.Time
	lastError  string
	quitting   bool

	spinnerFrame int

	topTopics   int
	trendLength int

	// Detail view state for one connection
	detailConn     string
	detailViewport viewport.Model
	viewportReady  bool
}

// tickMsg signals a scheduler check.
type tickMsg time.Time

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

// refreshedMsg reports that a background refresh for a key finished.
type refreshedMsg struct {
	key  cache.Key
	time time.Time
}

// mutationDoneMsg reports the outcome of a connect/disconnect/clear.
type mutationDoneMsg struct {
	err error
}

// NewModel creates a dashboard over an already-populated store and scheduler.
// topTopics and trendLength size the analytics panels (0 uses defaults).
func NewModel(client Client, store *cache.Store, scheduler *cache.Scheduler, coord *mutate.Coordinator, topTopics, trendLength int) Model {
	if topTopics <= 0 {
		topTopics = 5
	}
	if trendLength <= 0 {
		trendLength = 50
	}

	search := textinput.New()
	search.Placeholder = "filter"
	search.Prompt = "/"
	search.CharLimit = 80

	return Model{
		client:      client,
		store:       store,
		scheduler:   scheduler,
		coord:       coord,
		selected:    make(map[Tab]int),
		search:      search,
		topTopics:   topTopics,
		trendLength: trendLength,
	}
}

// Init starts the scheduler tick and the spinner animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinnerTickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, viewportHeight)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = viewportHeight
		}

		if m.viewMode == ViewDetail {
			m.updateDetailContent()
		}

	case tickMsg:
		now := time.Time(msg)
		cmds := []tea.Cmd{m.tickCmd()}
		for _, key := range m.scheduler.DueKeys(m.store.Keys(), now) {
			m.scheduler.MarkFired(key, now)
			cmds = append(cmds, m.refreshCmd(key))
		}
		return m, tea.Batch(cmds...)

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()

	case refreshedMsg:
		m.lastUpdate = msg.time
		m.clampSelection()
		if m.viewMode == ViewDetail {
			m.updateDetailContent()
		}

	case mutationDoneMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = ""
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// tickCmd returns a command that checks the scheduler after tickInterval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// spinnerTickCmd returns a command that advances the spinner animation.
func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// refreshCmd returns a command that refreshes one key in the background.
// The store drops the request if a fetch for the key is already in flight.
func (m Model) refreshCmd(key cache.Key) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		store.Refresh(ctx, key)
		return refreshedMsg{key: key, time: time.Now()}
	}
}

// toggleCmd flips the selected connection's desired state through the
// coordinator. The connection row shows a pending indicator until the server
// confirms; IsConnected itself is never assumed.
func (m Model) toggleCmd(conn api.Connection) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var err error
		if conn.IsConnected {
			err = coord.Disconnect(ctx, conn.ID)
		} else {
			err = coord.Connect(ctx, conn.ID)
		}
		return mutationDoneMsg{err: err}
	}
}

// clearMessagesCmd deletes all stored messages after the operator confirmed.
func (m Model) clearMessagesCmd() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{err: coord.ClearMessages(ctx)}
	}
}

// openDetail enters the detail view for a connection and starts polling its
// scoped message feed.
func (m *Model) openDetail(conn api.Connection) tea.Cmd {
	key := cache.ConnectionMessagesKey(conn.ID)
	client := m.client
	id := conn.ID
	m.store.Register(key, func(ctx context.Context) (interface{}, error) {
		return client.ConnectionMessages(ctx, id)
	})
	m.scheduler.SetInterval(key, m.scheduler.Interval(cache.KeyMessages))

	m.detailConn = conn.ID
	m.viewMode = ViewDetail
	m.updateDetailContent()
	return m.refreshCmd(key)
}

// closeDetail leaves the detail view and stops tracking the scoped feed.
func (m *Model) closeDetail() {
	if m.detailConn != "" {
		key := cache.ConnectionMessagesKey(m.detailConn)
		m.store.Unregister(key)
		m.scheduler.Forget(key)
	}
	m.detailConn = ""
	m.viewMode = ViewList
}

// openConfirmClear shows the clear-messages confirmation and pauses the
// messages poll so the overlay isn't redrawn out from under the operator.
func (m *Model) openConfirmClear() {
	m.confirmClear = true
	m.scheduler.Suppress(cache.KeyMessages, cache.SuppressModal)
}

// closeConfirmClear hides the confirmation and resumes polling.
func (m *Model) closeConfirmClear() {
	m.confirmClear = false
	m.scheduler.Release(cache.KeyMessages, cache.SuppressModal)
}

// query returns the active filter text.
func (m Model) query() string {
	return m.search.Value()
}

// users returns the cached users with the active filter applied.
func (m Model) users() ([]api.User, cache.Entry) {
	entry, _ := m.store.Get(cache.KeyUsers)
	if !entry.HasValue() {
		return nil, entry
	}
	users, _ := entry.Value.([]api.User)
	return filter.Users(users, filter.UserSearch(m.query())), entry
}

// connections returns the cached connections with the active filter applied.
func (m Model) connections() ([]api.Connection, cache.Entry) {
	entry, _ := m.store.Get(cache.KeyConnections)
	if !entry.HasValue() {
		return nil, entry
	}
	conns, _ := entry.Value.([]api.Connection)
	return filter.Connections(conns, filter.ConnectionSearch(m.query())), entry
}

// messages returns the cached global message feed with the filter applied.
func (m Model) messages() ([]api.Message, cache.Entry) {
	entry, _ := m.store.Get(cache.KeyMessages)
	if !entry.HasValue() {
		return nil, entry
	}
	msgs, _ := entry.Value.([]api.Message)
	return filter.Messages(msgs, filter.MessageSearch(m.query())), entry
}

// detailMessages returns the scoped feed for the open detail connection.
func (m Model) detailMessages() []api.Message {
	if m.detailConn == "" {
		return nil
	}
	entry, _ := m.store.Get(cache.ConnectionMessagesKey(m.detailConn))
	if !entry.HasValue() {
		return nil
	}
	msgs, _ := entry.Value.([]api.Message)
	return msgs
}

// stats returns the cached system stats, or nil before the first fetch.
func (m Model) stats() *api.SystemStats {
	entry, _ := m.store.Get(cache.KeySystemStats)
	if !entry.HasValue() {
		return nil
	}
	stats, ok := entry.Value.(api.SystemStats)
	if !ok {
		return nil
	}
	return &stats
}

// detailConnection returns the open detail connection from the cache.
func (m Model) detailConnection() *api.Connection {
	if m.detailConn == "" {
		return nil
	}
	entry, _ := m.store.Get(cache.KeyConnections)
	if !entry.HasValue() {
		return nil
	}
	conns, _ := entry.Value.([]api.Connection)
	for i := range conns {
		if conns[i].ID == m.detailConn {
			return &conns[i]
		}
	}
	return nil
}

// selectedConnection returns the highlighted connection row, if any.
func (m Model) selectedConnection() *api.Connection {
	conns, _ := m.connections()
	idx := m.selected[TabConnections]
	if idx < 0 || idx >= len(conns) {
		return nil
	}
	return &conns[idx]
}

// rowCount returns how many selectable rows the current tab has.
func (m Model) rowCount() int {
	switch m.tab {
	case TabUsers:
		users, _ := m.users()
		return len(users)
	case TabConnections:
		conns, _ := m.connections()
		return len(conns)
	case TabMessages:
		msgs, _ := m.messages()
		return len(msgs)
	default:
		return 0
	}
}

// clampSelection keeps the selected index valid after a refresh or filter
// change shrinks the row set.
func (m *Model) clampSelection() {
	count := m.rowCount()
	if count == 0 {
		m.selected[m.tab] = 0
		return
	}
	if m.selected[m.tab] >= count {
		m.selected[m.tab] = count - 1
	}
	if m.selected[m.tab] < 0 {
		m.selected[m.tab] = 0
	}
}

// PendingSpinner returns the current frame of the pending animation.
func (m Model) PendingSpinner() string {
	return PendingSpinnerFrames[m.spinnerFrame%len(PendingSpinnerFrames)]
}

// SecondsSinceUpdate returns how many seconds have passed since any key
// finished refreshing.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}
