package dashboard

// Tab identifies one of the dashboard's top-level panels.
type Tab int

const (
	TabOverview Tab = iota
	TabUsers
	TabConnections
	TabMessages
)

// tabCount is the number of panels for cycling.
const tabCount = 4

// String returns the tab's label for the tab bar.
func (t Tab) String() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabUsers:
		return "Users"
	case TabConnections:
		return "Connections"
	case TabMessages:
		return "Messages"
	default:
		return "Overview"
	}
}

// Next cycles to the next tab.
func (t Tab) Next() Tab {
	return Tab((int(t) + 1) % tabCount)
}

// Prev cycles to the previous tab.
func (t Tab) Prev() Tab {
	return Tab((int(t) + tabCount - 1) % tabCount)
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)
