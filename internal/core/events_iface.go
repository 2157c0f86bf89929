package core

import "github.com/dkeye/mentor-avatar/internal/domain"

// Listener receives coordinator events. Implementations must not block.
type Listener interface {
	HandleEvent(domain.Event)
}

// UIEvent is a UI-visible effect produced by the orchestrator.
type UIEvent struct {
	Type     string        `json:"type"`
	Status   domain.Status `json:"status,omitempty"`
	Speaking *bool         `json:"speaking,omitempty"`
	Role     domain.Role   `json:"role,omitempty"`
	Text     string        `json:"text,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// View renders orchestrator output (console, websocket, ...).
type View interface {
	Render(UIEvent)
}
