package domain

// Status is the connection status signal exposed to the orchestrator.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventSpeaking EventType = "speaking"
	EventError    EventType = "error"
)

// Event is a typed coordinator notification. Only the field matching Type is set.
type Event struct {
	Type     EventType
	Status   Status
	Speaking bool
	Err      error
}

func StatusEvent(s Status) Event { return Event{Type: EventStatus, Status: s} }
func SpeakingEvent(v bool) Event { return Event{Type: EventSpeaking, Speaking: v} }
func ErrorEvent(err error) Event { return Event{Type: EventError, Err: err} }

// Role tags a transcript line.
type Role string

const (
	RoleAvatar Role = "avatar"
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)
