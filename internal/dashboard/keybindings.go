package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mqdash/mqdash/internal/cache"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyNextTab     = "tab"
	KeyPrevTab     = "shift+tab"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeySearch      = "/"
	KeyToggleConn  = "c"
	KeyClearMsgs   = "x"
	KeyConfirm     = "y"
	KeyDeny        = "n"
	KeyToggleHelp  = "?"
)

// scrollKeys are the keys that count as scroll activity. Polling pauses
// briefly after each one so the list doesn't reshuffle mid-navigation.
var scrollKeys = map[string]bool{
	KeySelectPrev:  true,
	KeySelectPrevK: true,
	KeySelectNext:  true,
	KeySelectNextJ: true,
	KeySelectFirst: true,
	KeySelectLast:  true,
	"pgup":         true,
	"pgdown":       true,
}

// HandleKeyMsg processes keyboard input and returns updated model state and
// command. Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Search input swallows everything except its exit keys
	if m.searching {
		switch key {
		case KeyCollapse:
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.clampSelection()
			return true, nil
		case KeyExpand:
			m.searching = false
			m.search.Blur()
			m.clampSelection()
			return true, nil
		case KeyQuitAlt:
			m.quitting = true
			return true, tea.Quit
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.clampSelection()
			return true, cmd
		}
	}

	// Clear-messages confirmation overlay
	if m.confirmClear {
		switch key {
		case KeyConfirm:
			m.closeConfirmClear()
			return true, m.clearMessagesCmd()
		case KeyDeny, KeyCollapse:
			m.closeConfirmClear()
			return true, nil
		case KeyQuitAlt:
			m.closeConfirmClear()
			m.quitting = true
			return true, tea.Quit
		}
		return true, nil
	}

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	// Detail view: Esc returns to list, scroll keys move the viewport
	if m.viewMode == ViewDetail {
		switch key {
		case KeyCollapse:
			m.closeDetail()
			return true, nil
		case KeyQuit, KeyQuitAlt:
			m.quitting = true
			return true, tea.Quit
		case KeyToggleConn:
			if conn := m.detailConnection(); conn != nil {
				return true, m.toggleCmd(*conn)
			}
			return true, nil
		}
		if scrollKeys[key] {
			m.scheduler.MarkScroll(time.Now())
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return true, cmd
		}
		return true, nil
	}

	if scrollKeys[key] {
		m.scheduler.MarkScroll(time.Now())
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		now := time.Now()
		var cmds []tea.Cmd
		for _, k := range m.store.Keys() {
			m.scheduler.MarkFired(k, now)
			cmds = append(cmds, m.refreshCmd(k))
		}
		return true, tea.Batch(cmds...)

	case KeyNextTab:
		m.tab = m.tab.Next()
		m.clampSelection()
		return true, nil

	case KeyPrevTab:
		m.tab = m.tab.Prev()
		m.clampSelection()
		return true, nil

	case "1", "2", "3", "4":
		m.tab = Tab(int(key[0] - '1'))
		m.clampSelection()
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected[m.tab] > 0 {
			m.selected[m.tab]--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected[m.tab] < m.rowCount()-1 {
			m.selected[m.tab]++
		}
		return true, nil

	case KeySelectFirst:
		m.selected[m.tab] = 0
		return true, nil

	case KeySelectLast:
		if count := m.rowCount(); count > 0 {
			m.selected[m.tab] = count - 1
		}
		return true, nil

	case KeySearch:
		m.searching = true
		m.search.Focus()
		return true, textinput.Blink

	case KeyExpand:
		if m.tab == TabConnections {
			if conn := m.selectedConnection(); conn != nil {
				return true, m.openDetail(*conn)
			}
		}
		return true, nil

	case KeyCollapse:
		if m.query() != "" {
			m.search.SetValue("")
			m.clampSelection()
		}
		return true, nil

	case KeyToggleConn:
		if m.tab == TabConnections {
			if conn := m.selectedConnection(); conn != nil {
				return true, m.toggleCmd(*conn)
			}
		}
		return true, nil

	case KeyClearMsgs:
		if m.tab == TabMessages {
			m.openConfirmClear()
		}
		return true, nil
	}

	return false, nil
}

// suppressedKey is a helper for views that show a paused indicator.
func (m Model) suppressedKey(key cache.Key) bool {
	return m.scheduler.Suppressed(key, time.Now())
}
