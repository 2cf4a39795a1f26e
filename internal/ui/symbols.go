package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess      = "✓" // Operation completed successfully
	SymbolFail         = "✗" // Operation failed
	SymbolPending      = "○" // Awaiting server confirmation
	SymbolProgress     = "◐" // In progress
	SymbolConnected    = "●" // Connection is live
	SymbolDisconnected = "◌" // Connection is down
)
