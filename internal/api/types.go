package api

import "time"

// Role is a user's authorization level.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Protocol is the transport a broker connection uses.
type Protocol string

const (
	ProtocolWS    Protocol = "ws"
	ProtocolWSS   Protocol = "wss"
	ProtocolMQTT  Protocol = "mqtt"
	ProtocolMQTTS Protocol = "mqtts"
)

// User is a platform account as returned by the admin API.
// Timestamps are nullable on the server and therefore pointers here.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	ProfileImage string     `json:"profileImage,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// Connection is an MQTT broker connection owned by a user.
// IsConnected is server-authoritative; the client never sets it locally.
type Connection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	BrokerURL   string    `json:"brokerUrl"`
	Port        int       `json:"port"`
	Protocol    Protocol  `json:"protocol"`
	ClientID    string    `json:"clientId"`
	IsConnected bool      `json:"isConnected"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message is a single MQTT message observed by the platform.
// Messages are append-only and immutable.
type Message struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Topic        string    `json:"topic"`
	Payload      string    `json:"payload"`
	Timestamp    time.Time `json:"timestamp"`
	QoS          *int      `json:"qos,omitempty"`
}

// SystemStats is the server-computed platform overview. The server owns the
// computation; the client renders it as-is.
type SystemStats struct {
	TotalUsers        int       `json:"totalUsers"`
	TotalConnections  int       `json:"totalConnections"`
	ActiveConnections int       `json:"activeConnections"`
	TotalMessages     int       `json:"totalMessages"`
	MessagesPerMinute float64   `json:"messagesPerMinute"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// SecurityEvent is an auth or policy incident recorded by the server.
type SecurityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityEvent is a single entry in the per-user activity feed.
type ActivityEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// UpdateUserRequest is the payload for updating a user. Empty fields are
// left unchanged by the server.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// PublishRequest is the payload for publishing a message through a connection.
type PublishRequest struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
	QoS     int    `json:"qos,omitempty"`
	Retain  bool   `json:"retain,omitempty"`
}
