// Package relayclient is the client side of the session relay HTTP surface.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/mentor-avatar/internal/domain"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for a relay mounted at baseURL
// (for example http://localhost:8080/api/heygen).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func (c *Client) NewSession(ctx context.Context) (json.RawMessage, error) {
	return c.post(ctx, "create session", "/session/new", struct{}{})
}

func (c *Client) Start(ctx context.Context, id domain.SessionID, offer webrtc.SessionDescription) (json.RawMessage, error) {
	return c.post(ctx, "start session", "/session/start", struct {
		SessionID domain.SessionID          `json:"session_id"`
		SDP       webrtc.SessionDescription `json:"sdp"`
	}{id, offer})
}

func (c *Client) SendICE(ctx context.Context, id domain.SessionID, candidate webrtc.ICECandidateInit) error {
	_, err := c.post(ctx, "send ICE candidate", "/session/ice", struct {
		SessionID domain.SessionID        `json:"session_id"`
		Candidate webrtc.ICECandidateInit `json:"candidate"`
	}{id, candidate})
	return err
}

func (c *Client) Speak(ctx context.Context, id domain.SessionID, text string) (json.RawMessage, error) {
	return c.post(ctx, "send text", "/session/speak", struct {
		SessionID domain.SessionID `json:"session_id"`
		Text      string           `json:"text"`
	}{id, text})
}

func (c *Client) Interrupt(ctx context.Context, id domain.SessionID) error {
	_, err := c.post(ctx, "interrupt session", "/session/interrupt", sessionOnly{id})
	return err
}

func (c *Client) Close(ctx context.Context, id domain.SessionID) error {
	_, err := c.post(ctx, "close session", "/session/close", sessionOnly{id})
	return err
}

type sessionOnly struct {
	SessionID domain.SessionID `json:"session_id"`
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Unreachable(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Unreachable(op, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return json.RawMessage(body), nil
	}
	return nil, decodeFailure(op, resp.StatusCode, body)
}

// decodeFailure turns a relay `{error, details}` body back into the taxonomy.
func decodeFailure(op string, status int, body []byte) error {
	var er errorResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &er) == nil {
		msg = er.Error
		if details := detailsText(er.Details); details != "" {
			msg = details
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status >= 400 && status < 500:
		return &domain.Error{Kind: domain.KindValidation, Op: op, Status: status, Message: msg}
	case status == http.StatusGatewayTimeout:
		return &domain.Error{Kind: domain.KindProviderUnreachable, Op: op, Status: status, Message: msg}
	default:
		return domain.Provider(op, status, msg)
	}
}

func detailsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
