// Package provider talks to the HeyGen streaming API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/config"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

const (
	DefaultBaseURL = "https://api.heygen.com"
	DefaultTimeout = 30 * time.Second

	pathNew       = "/v1/streaming.new"
	pathStart     = "/v1/streaming.start"
	pathICE       = "/v1/streaming.ice"
	pathTask      = "/v1/streaming.task"
	pathInterrupt = "/v1/streaming.interrupt"
	pathStop      = "/v1/streaming.stop"
)

// Gateway is a thin client for the provider's session endpoints. It keeps no
// state between calls.
type Gateway struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger zerolog.Logger
}

type Option func(*Gateway)

// WithHTTPClient uses a copy of c in place of the default client. The copy's
// Timeout is set to the configured per-call timeout; c itself is not touched.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		cp := *c
		g.client = &cp
	}
}

// NewGateway validates credentials before anything touches the network.
func NewGateway(cfg config.ProviderConfig, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Quality == "" {
		cfg.Quality = "high"
	}
	if cfg.VoiceRate == 0 {
		cfg.VoiceRate = 1.0
	}

	g := &Gateway{
		cfg:    cfg,
		client: &http.Client{},
		logger: log.With().Str("module", "provider").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.client.Timeout = cfg.Timeout
	return g, nil
}

type voiceSettings struct {
	VoiceID string  `json:"voice_id"`
	Rate    float64 `json:"rate"`
}

type newSessionRequest struct {
	Quality    string        `json:"quality"`
	AvatarName string        `json:"avatar_name"`
	Voice      voiceSettings `json:"voice"`
}

type startRequest struct {
	SessionID domain.SessionID `json:"session_id"`
	SDP       json.RawMessage  `json:"sdp"`
}

type iceRequest struct {
	SessionID domain.SessionID `json:"session_id"`
	Candidate json.RawMessage  `json:"candidate"`
}

type taskRequest struct {
	SessionID domain.SessionID `json:"session_id"`
	Text      string           `json:"text"`
	TaskType  string           `json:"task_type"`
}

type sessionRequest struct {
	SessionID domain.SessionID `json:"session_id"`
}

func (g *Gateway) CreateSession(ctx context.Context) (json.RawMessage, error) {
	g.logger.Info().Str("avatar_id", g.cfg.AvatarID).Str("voice_id", g.cfg.VoiceID).Msg("creating streaming session")
	body, err := g.post(ctx, "create session", pathNew, newSessionRequest{
		Quality:    g.cfg.Quality,
		AvatarName: g.cfg.AvatarID,
		Voice:      voiceSettings{VoiceID: g.cfg.VoiceID, Rate: g.cfg.VoiceRate},
	})
	if err != nil {
		return nil, err
	}
	var env domain.Envelope[domain.NewSessionData]
	if json.Unmarshal(body, &env) == nil && env.Data != nil {
		g.logger.Info().Str("session_id", string(env.Data.SessionID)).Msg("session created")
	}
	return body, nil
}

func (g *Gateway) StartSession(ctx context.Context, id domain.SessionID, sdp json.RawMessage) (json.RawMessage, error) {
	g.logger.Info().Str("session_id", string(id)).Msg("starting session")
	return g.post(ctx, "start session", pathStart, startRequest{SessionID: id, SDP: sdp})
}

func (g *Gateway) SendICE(ctx context.Context, id domain.SessionID, candidate json.RawMessage) (json.RawMessage, error) {
	return g.post(ctx, "send ICE candidate", pathICE, iceRequest{SessionID: id, Candidate: candidate})
}

func (g *Gateway) SendText(ctx context.Context, id domain.SessionID, text string) (json.RawMessage, error) {
	g.logger.Info().Str("session_id", string(id)).Str("text", preview(text, 50)).Msg("sending text")
	return g.post(ctx, "send text", pathTask, taskRequest{SessionID: id, Text: text, TaskType: "talk"})
}

func (g *Gateway) Interrupt(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	g.logger.Info().Str("session_id", string(id)).Msg("interrupting session")
	return g.post(ctx, "interrupt session", pathInterrupt, sessionRequest{SessionID: id})
}

func (g *Gateway) CloseSession(ctx context.Context, id domain.SessionID) (json.RawMessage, error) {
	g.logger.Info().Str("session_id", string(id)).Msg("closing session")
	return g.post(ctx, "close session", pathStop, sessionRequest{SessionID: id})
}

func (g *Gateway) post(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("op", op).Msg("provider unreachable")
		return nil, domain.Unreachable(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error().Err(err).Str("op", op).Msg("read provider response")
		return nil, domain.Unreachable(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ExtractMessage(resp.StatusCode, body)
		g.logger.Error().Str("op", op).Int("status", resp.StatusCode).Str("message", msg).Msg("provider error")
		return nil, domain.Provider(op, resp.StatusCode, msg)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	return json.RawMessage(body), nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
