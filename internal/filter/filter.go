// Package filter composes client-side predicates over cached collections.
// Filters are pure and combined with logical AND, so applying them in any
// order yields the same result — the UI lets the operator toggle filters
// in any sequence.
package filter

import (
	"strings"
	"time"

	"github.com/mqdash/mqdash/internal/api"
)

// MessagePredicate selects messages.
type MessagePredicate func(api.Message) bool

// UserPredicate selects users.
type UserPredicate func(api.User) bool

// ConnectionPredicate selects connections.
type ConnectionPredicate func(api.Connection) bool

// Messages returns the messages matching every predicate, preserving input
// order.
func Messages(messages []api.Message, preds ...MessagePredicate) []api.Message {
	var out []api.Message
	for _, m := range messages {
		if matchesMessage(m, preds) {
			out = append(out, m)
		}
	}
	return out
}

func matchesMessage(m api.Message, preds []MessagePredicate) bool {
	for _, p := range preds {
		if !p(m) {
			return false
		}
	}
	return true
}

// Users returns the users matching every predicate, preserving input order.
func Users(users []api.User, preds ...UserPredicate) []api.User {
	var out []api.User
	for _, u := range users {
		matched := true
		for _, p := range preds {
			if !p(u) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, u)
		}
	}
	return out
}

// Connections returns the connections matching every predicate, preserving
// input order.
func Connections(conns []api.Connection, preds ...ConnectionPredicate) []api.Connection {
	var out []api.Connection
	for _, c := range conns {
		matched := true
		for _, p := range preds {
			if !p(c) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, c)
		}
	}
	return out
}

// MessageSearch matches a case-insensitive substring of topic or payload.
// An empty query matches everything.
func MessageSearch(query string) MessagePredicate {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(m api.Message) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(m.Topic), query) ||
			strings.Contains(strings.ToLower(m.Payload), query)
	}
}

// MessageConnection scopes messages to one connection. An empty id matches
// everything (system-wide scope).
func MessageConnection(connectionID string) MessagePredicate {
	return func(m api.Message) bool {
		return connectionID == "" || m.ConnectionID == connectionID
	}
}

// MessageWindow matches messages with from <= timestamp < to. A zero bound
// is open on that side.
func MessageWindow(from, to time.Time) MessagePredicate {
	return func(m api.Message) bool {
		if !from.IsZero() && m.Timestamp.Before(from) {
			return false
		}
		if !to.IsZero() && !m.Timestamp.Before(to) {
			return false
		}
		return true
	}
}

// UserSearch matches a case-insensitive substring of username or email.
// An empty query matches everything.
func UserSearch(query string) UserPredicate {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(u api.User) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(u.Username), query) ||
			strings.Contains(strings.ToLower(u.Email), query)
	}
}

// UserRole matches users with the given role. An empty role matches
// everything.
func UserRole(role api.Role) UserPredicate {
	return func(u api.User) bool {
		return role == "" || u.Role == role
	}
}

// ConnectionSearch matches a case-insensitive substring of name, broker URL,
// or client id. An empty query matches everything.
func ConnectionSearch(query string) ConnectionPredicate {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(c api.Connection) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.BrokerURL), query) ||
			strings.Contains(strings.ToLower(c.ClientID), query)
	}
}

// ConnectionStatus matches connections by their server-reported state.
func ConnectionStatus(connected bool) ConnectionPredicate {
	return func(c api.Connection) bool {
		return c.IsConnected == connected
	}
}

// ConnectionOwner matches connections owned by the given user. An empty id
// matches everything.
func ConnectionOwner(userID string) ConnectionPredicate {
	return func(c api.Connection) bool {
		return userID == "" || c.UserID == userID
	}
}
