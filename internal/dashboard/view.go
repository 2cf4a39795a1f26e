package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mqdash/mqdash/internal/analytics"
	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch {
	case m.showHelp:
		b.WriteString(m.renderHelp())
	case m.confirmClear:
		b.WriteString(m.renderConfirmClear())
	case m.viewMode == ViewDetail:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderBody())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with summary stats.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("mqdash")

	var parts []string
	if stats := m.stats(); stats != nil {
		parts = append(parts,
			fmt.Sprintf("%d users", stats.TotalUsers),
			fmt.Sprintf("%d/%d connected", stats.ActiveConnections, stats.TotalConnections),
			fmt.Sprintf("%.1f msg/min", stats.MessagesPerMinute))
	}

	lastUpdate := m.SecondsSinceUpdate()
	switch {
	case m.lastUpdate.IsZero():
		parts = append(parts, "loading")
	case lastUpdate == 0:
		parts = append(parts, "updated just now")
	case lastUpdate == 1:
		parts = append(parts, "updated 1s ago")
	default:
		parts = append(parts, fmt.Sprintf("updated %ds ago", lastUpdate))
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	line := HeaderStyle.Render(title + stats)
	if m.lastError != "" {
		line += "\n" + ErrorStyle.Render("  ✗ "+m.lastError)
	}
	return line
}

// renderTabs renders the tab bar.
func (m Model) renderTabs() string {
	var tabs []string
	for i := 0; i < tabCount; i++ {
		t := Tab(i)
		label := fmt.Sprintf("%d:%s", i+1, t)
		if t == m.tab {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabInactiveStyle.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

// renderBody renders the active tab's list panel.
func (m Model) renderBody() string {
	switch m.tab {
	case TabUsers:
		return m.renderUsers()
	case TabConnections:
		return m.renderConnections()
	case TabMessages:
		return m.renderMessages()
	default:
		return m.renderOverview()
	}
}

// renderOverview renders platform stats and the global analytics panels.
func (m Model) renderOverview() string {
	var b strings.Builder

	stats := m.stats()
	entry, _ := m.store.Get(cache.KeySystemStats)
	if stats == nil {
		b.WriteString(LabelStyle.Render("Waiting for first stats fetch..."))
		b.WriteString("\n")
	} else {
		b.WriteString(TitleStyle.Render("Platform"))
		b.WriteString(m.staleMarker(entry))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Users:"), ValueStyle.Render(fmt.Sprintf("%d", stats.TotalUsers))))
		b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Connections:"), ValueStyle.Render(fmt.Sprintf("%d (%d active)", stats.TotalConnections, stats.ActiveConnections))))
		b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Messages:"), ValueStyle.Render(fmt.Sprintf("%d", stats.TotalMessages))))
		b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Rate:"), ValueStyle.Render(fmt.Sprintf("%.1f msg/min", stats.MessagesPerMinute))))
	}

	msgs, msgEntry := m.messages()
	if !msgEntry.HasValue() {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Waiting for first message fetch..."))
		return b.String()
	}

	view := analytics.Aggregate(msgs, analytics.ScopeAll(), time.Now())
	b.WriteString("\n")
	b.WriteString(m.renderAnalytics(view))
	return b.String()
}

// renderAnalytics renders the frequency, topic, and trend panels for a
// precomputed view.
func (m Model) renderAnalytics(view analytics.AggregateView) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Message frequency (24h)"))
	b.WriteString("\n  ")
	counts := make([]float64, len(view.MessageFrequency))
	total := 0
	for i, bucket := range view.MessageFrequency {
		counts[i] = float64(bucket.Count)
		total += bucket.Count
	}
	b.WriteString(ui.RenderSparkline(counts, len(counts), ColorGraph))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d msgs", total)))
	b.WriteString("\n\n")

	b.WriteString(TitleStyle.Render("Top topics"))
	b.WriteString("\n")
	if len(view.TopicDistribution) == 0 {
		b.WriteString(MutedStyle.Render("  no traffic yet"))
		b.WriteString("\n")
	} else {
		maxCount := view.TopicDistribution[0].Count
		for _, tc := range view.TopicDistribution {
			b.WriteString("  ")
			b.WriteString(ui.RenderBar(tc.Topic, tc.Count, maxCount, 20, 24, ColorAccent))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Value trend"))
	b.WriteString("\n  ")
	if view.ValueTrend == nil {
		b.WriteString(MutedStyle.Render("no numeric telemetry"))
	} else {
		values := make([]float64, len(view.ValueTrend))
		for i, p := range view.ValueTrend {
			values[i] = p.Value
		}
		b.WriteString(ui.RenderSparkline(values, m.trendLength, ColorGraph))
		last := view.ValueTrend[len(view.ValueTrend)-1]
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  latest %.2f", last.Value)))
	}
	b.WriteString("\n")

	return b.String()
}

// renderUsers renders the user list.
func (m Model) renderUsers() string {
	users, entry := m.users()
	if !entry.HasValue() {
		return m.loadingOrError(entry, "users")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Users (%d)", len(users))))
	b.WriteString(m.staleMarker(entry))
	b.WriteString("\n")

	if len(users) == 0 {
		b.WriteString(MutedStyle.Render("  no users match"))
		return b.String()
	}

	for i, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = formatAge(*u.LastLogin)
		}
		row := fmt.Sprintf("  %-20s %-8s %-30s last login %s",
			truncate(u.Username, 20), u.Role, truncate(u.Email, 30), lastLogin)
		if i == m.selected[m.tab] {
			row = SelectedRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// renderConnections renders the connection list with live status glyphs.
func (m Model) renderConnections() string {
	conns, entry := m.connections()
	if !entry.HasValue() {
		return m.loadingOrError(entry, "connections")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Connections (%d)", len(conns))))
	b.WriteString(m.staleMarker(entry))
	b.WriteString("\n")

	if len(conns) == 0 {
		b.WriteString(MutedStyle.Render("  no connections match"))
		return b.String()
	}

	for i, c := range conns {
		glyph := m.statusGlyph(c)
		row := fmt.Sprintf(" %s %-24s %-30s %s",
			glyph, truncate(c.Name, 24),
			truncate(fmt.Sprintf("%s://%s:%d", c.Protocol, c.BrokerURL, c.Port), 30),
			truncate(c.ClientID, 20))
		if i == m.selected[m.tab] {
			row = SelectedRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// statusGlyph returns the styled state indicator for a connection row.
// A pending connect/disconnect renders as a spinner, never as the target
// state: the server owns IsConnected.
func (m Model) statusGlyph(c api.Connection) string {
	if _, pending := m.coord.Pending(c.ID); pending {
		return StatusPendingStyle.Render(m.PendingSpinner())
	}
	if c.IsConnected {
		return StatusConnectedStyle.Render(StatusConnected)
	}
	return StatusDisconnectedStyle.Render(StatusDisconnected)
}

// renderMessages renders the global message feed, newest visible rows first.
func (m Model) renderMessages() string {
	msgs, entry := m.messages()
	if !entry.HasValue() {
		return m.loadingOrError(entry, "messages")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Messages (%d)", len(msgs))))
	b.WriteString(m.staleMarker(entry))
	b.WriteString("\n")

	if len(msgs) == 0 {
		b.WriteString(MutedStyle.Render("  no messages match"))
		return b.String()
	}

	visible := m.visibleRows()
	start := 0
	if len(msgs) > visible {
		start = len(msgs) - visible
	}
	sel := m.selected[m.tab]

	for i := start; i < len(msgs); i++ {
		msg := msgs[i]
		row := fmt.Sprintf("  %s %-30s %s",
			MutedStyle.Render(msg.Timestamp.Format("15:04:05")),
			truncate(msg.Topic, 30),
			truncate(msg.Payload, 50))
		if i == sel {
			row = SelectedRowStyle.Render(fmt.Sprintf("  %s %-30s %s",
				msg.Timestamp.Format("15:04:05"),
				truncate(msg.Topic, 30),
				truncate(msg.Payload, 50)))
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetail renders the scrollable connection detail view.
func (m Model) renderDetail() string {
	if !m.viewportReady {
		return LabelStyle.Render("Loading...")
	}
	return m.detailViewport.View()
}

// updateDetailContent rebuilds the detail viewport content from the cache.
func (m *Model) updateDetailContent() {
	if !m.viewportReady || m.detailConn == "" {
		return
	}

	var b strings.Builder
	conn := m.detailConnection()
	if conn == nil {
		// Deleted out from under us (cascade or another admin); the feed
		// key stays registered until the operator closes the view.
		b.WriteString(ErrorStyle.Render("Connection no longer exists"))
		b.WriteString("\n")
		m.detailViewport.SetContent(b.String())
		return
	}

	b.WriteString(TitleStyle.Render(conn.Name))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Broker:"), ValueStyle.Render(fmt.Sprintf("%s://%s:%d", conn.Protocol, conn.BrokerURL, conn.Port))))
	b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Client ID:"), ValueStyle.Render(conn.ClientID)))
	b.WriteString(fmt.Sprintf("  %s %s\n", LabelStyle.Render("Status:"), m.statusText(*conn)))
	b.WriteString("\n")

	msgs := m.detailMessages()
	view := analytics.Aggregate(msgs, analytics.ScopeConnection(conn.ID), time.Now())
	b.WriteString(m.renderAnalytics(view))

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Recent messages"))
	b.WriteString("\n")
	if len(msgs) == 0 {
		b.WriteString(MutedStyle.Render("  none yet"))
		b.WriteString("\n")
	} else {
		start := 0
		if len(msgs) > 20 {
			start = len(msgs) - 20
		}
		for _, msg := range msgs[start:] {
			b.WriteString(fmt.Sprintf("  %s %-30s %s\n",
				MutedStyle.Render(msg.Timestamp.Format("15:04:05")),
				truncate(msg.Topic, 30),
				truncate(msg.Payload, 50)))
		}
	}

	m.detailViewport.SetContent(b.String())
}

// statusText renders the connection state as a labelled indicator.
func (m Model) statusText(c api.Connection) string {
	if kind, pending := m.coord.Pending(c.ID); pending {
		return StatusPendingStyle.Render(fmt.Sprintf("%s %sing...", m.PendingSpinner(), kind))
	}
	if c.IsConnected {
		return StatusConnectedStyle.Render(StatusConnected + " connected")
	}
	return StatusDisconnectedStyle.Render(StatusDisconnected + " disconnected")
}

// renderConfirmClear renders the destructive-action confirmation overlay.
func (m Model) renderConfirmClear() string {
	body := TitleStyle.Render("Clear all messages?") + "\n\n" +
		LabelStyle.Render("This deletes every stored message for every connection.") + "\n\n" +
		ValueStyle.Render("y") + LabelStyle.Render(" confirm   ") +
		ValueStyle.Render("n") + LabelStyle.Render(" cancel")
	return PanelStyle.Render(body)
}

// renderHelp renders the keyboard reference overlay.
func (m Model) renderHelp() string {
	rows := []struct{ key, desc string }{
		{"1-4 / tab", "switch panel"},
		{"↑↓ / jk", "select row"},
		{"enter", "connection detail"},
		{"esc", "back / clear filter"},
		{"/", "filter rows"},
		{"c", "connect or disconnect"},
		{"x", "clear all messages"},
		{"r", "refresh now"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Keys"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			ValueStyle.Render(fmt.Sprintf("%-10s", r.key)),
			LabelStyle.Render(r.desc)))
	}
	return PanelStyle.Render(b.String())
}

// renderFooter renders the search input or the key hints.
func (m Model) renderFooter() string {
	if m.searching {
		return FooterStyle.Render(m.search.View())
	}

	hints := []string{"? help", "/ filter", "q quit"}
	if m.query() != "" {
		hints = append([]string{fmt.Sprintf("filter: %q (esc clears)", m.query())}, hints...)
	}
	if m.suppressedKey(cache.KeyMessages) {
		hints = append(hints, "polling paused")
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

// loadingOrError renders the pre-first-fetch state for a panel.
func (m Model) loadingOrError(entry cache.Entry, what string) string {
	if entry.Err != nil {
		return ErrorStyle.Render(fmt.Sprintf("✗ failed to load %s: %v", what, entry.Err))
	}
	return LabelStyle.Render("Loading " + what + "...")
}

// staleMarker flags a panel whose last refresh failed; the shown data is the
// last good value, not blank.
func (m Model) staleMarker(entry cache.Entry) string {
	if entry.Err != nil && entry.HasValue() {
		return StaleStyle.Render("  (stale)")
	}
	return ""
}

// visibleRows is how many list rows fit under the chrome.
func (m Model) visibleRows() int {
	if m.height == 0 {
		return 20
	}
	rows := m.height - 8
	if rows < 5 {
		rows = 5
	}
	return rows
}

// truncate shortens a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// formatAge renders a timestamp as a relative age like "3h ago".
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
