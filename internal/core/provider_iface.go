package core

import (
	"context"
	"encoding/json"

	"github.com/dkeye/mentor-avatar/internal/domain"
)

//go:generate mockgen -destination=../relay/mocks/gateway_mock.go -package=mocks github.com/dkeye/mentor-avatar/internal/core ProviderGateway

// ProviderGateway is the request/response surface of the remote streaming
// provider. Every method is one round trip and returns the provider body as is.
type ProviderGateway interface {
	CreateSession(ctx context.Context) (json.RawMessage, error)
	StartSession(ctx context.Context, id domain.SessionID, sdp json.RawMessage) (json.RawMessage, error)
	SendICE(ctx context.Context, id domain.SessionID, candidate json.RawMessage) (json.RawMessage, error)
	SendText(ctx context.Context, id domain.SessionID, text string) (json.RawMessage, error)
	Interrupt(ctx context.Context, id domain.SessionID) (json.RawMessage, error)
	CloseSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error)
}
