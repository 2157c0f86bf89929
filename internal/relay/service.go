// Package relay forwards browser-side session operations to the provider.
//
// The service is stateless: every call validates its input, forwards it to
// the gateway and returns the provider body untouched. Calls for different
// sessions never wait on each other.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

type Service struct {
	gw core.ProviderGateway
}

func New(gw core.ProviderGateway) *Service {
	return &Service{gw: gw}
}

func (s *Service) NewSession(ctx context.Context) (json.RawMessage, error) {
	return s.gw.CreateSession(ctx)
}

func (s *Service) Start(ctx context.Context, id domain.SessionID, sdp json.RawMessage) (json.RawMessage, error) {
	if id == "" || isEmpty(sdp) {
		return nil, domain.Validation("start", "session_id and sdp required")
	}
	return s.gw.StartSession(ctx, id, sdp)
}

func (s *Service) SendICE(ctx context.Context, id domain.SessionID, candidate json.RawMessage) (json.RawMessage, error) {
	if id == "" || isEmpty(candidate) {
		return nil, domain.Validation("ice", "session_id and candidate required")
	}
	return s.gw.SendICE(ctx, id, candidate)
}

func (s *Service) Speak(ctx context.Context, id domain.SessionID, text string) (json.RawMessage, error) {
	if id == "" || text == "" {
		return nil, domain.Validation("speak", "session_id and text required")
	}
	return s.gw.SendText(ctx, id, text)
}

func (s *Service) Interrupt(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	if id == "" {
		return nil, domain.Validation("interrupt", "session_id required")
	}
	return s.gw.Interrupt(ctx, id)
}

func (s *Service) Close(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	if id == "" {
		return nil, domain.Validation("close", "session_id required")
	}
	body, err := s.gw.CloseSession(ctx, id)
	if err == nil {
		log.Info().Str("module", "relay").Str("session_id", string(id)).Msg("session closed")
	}
	return body, err
}

// isEmpty treats absent, null, empty-string and empty-object payloads as missing.
func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch strings.ReplaceAll(string(trimmed), " ", "") {
	case "", "null", `""`, "{}", "false":
		return true
	}
	return false
}
