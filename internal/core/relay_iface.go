package core

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/mentor-avatar/internal/domain"
)

// RelayAPI is what the client side sees of the session relay service.
type RelayAPI interface {
	NewSession(ctx context.Context) (json.RawMessage, error)
	Start(ctx context.Context, id domain.SessionID, offer webrtc.SessionDescription) (json.RawMessage, error)
	SendICE(ctx context.Context, id domain.SessionID, candidate webrtc.ICECandidateInit) error
	Speak(ctx context.Context, id domain.SessionID, text string) (json.RawMessage, error)
	Interrupt(ctx context.Context, id domain.SessionID) error
	Close(ctx context.Context, id domain.SessionID) error
}
