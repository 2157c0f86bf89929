package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/mentor-avatar/internal/config"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

func testConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		APIKey:   "secret-key",
		AvatarID: "avatar-1",
		VoiceID:  "voice-1",
		BaseURL:  baseURL,
		Timeout:  2 * time.Second,
	}
}

type captured struct {
	path   string
	apiKey string
	body   map[string]any
}

func newProvider(t *testing.T, status int, response string) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		ch <- captured{path: r.URL.Path, apiKey: r.Header.Get("x-api-key"), body: body}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestNewGateway_MissingConfigFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := NewGateway(config.ProviderConfig{VoiceID: "v", BaseURL: srv.URL})
	var mc *domain.MissingConfigError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingConfigError, got %v", err)
	}
	if strings.Join(mc.Vars, ",") != "HEYGEN_API_KEY,HEYGEN_AVATAR_ID" {
		t.Fatalf("missing=%v", mc.Vars)
	}
	if hits.Load() != 0 {
		t.Fatalf("network call attempted before config validation")
	}
}

func TestGateway_CreateSessionSendsConfiguredPayload(t *testing.T) {
	srv, ch := newProvider(t, http.StatusOK, `{"data":{"session_id":"s1","ice_servers":[]}}`)
	gw, err := NewGateway(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	body, err := gw.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if string(body) != `{"data":{"session_id":"s1","ice_servers":[]}}` {
		t.Fatalf("body not passed through: %s", body)
	}

	got := <-ch
	if got.path != "/v1/streaming.new" {
		t.Fatalf("path=%s", got.path)
	}
	if got.apiKey != "secret-key" {
		t.Fatalf("x-api-key=%q", got.apiKey)
	}
	if got.body["quality"] != "high" || got.body["avatar_name"] != "avatar-1" {
		t.Fatalf("unexpected body %v", got.body)
	}
	voice, _ := got.body["voice"].(map[string]any)
	if voice["voice_id"] != "voice-1" || voice["rate"] != 1.0 {
		t.Fatalf("unexpected voice settings %v", voice)
	}
}

func TestGateway_SessionOperationsHitTheirEndpoints(t *testing.T) {
	srv, ch := newProvider(t, http.StatusOK, `{"code":100}`)
	gw, err := NewGateway(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	ctx := context.Background()

	calls := []struct {
		path string
		call func() (json.RawMessage, error)
		key  string
	}{
		{"/v1/streaming.start", func() (json.RawMessage, error) {
			return gw.StartSession(ctx, "s1", json.RawMessage(`{"type":"offer","sdp":"v=0"}`))
		}, "sdp"},
		{"/v1/streaming.ice", func() (json.RawMessage, error) {
			return gw.SendICE(ctx, "s1", json.RawMessage(`{"candidate":"candidate:1"}`))
		}, "candidate"},
		{"/v1/streaming.task", func() (json.RawMessage, error) { return gw.SendText(ctx, "s1", "hello") }, "text"},
		{"/v1/streaming.interrupt", func() (json.RawMessage, error) { return gw.Interrupt(ctx, "s1") }, ""},
		{"/v1/streaming.stop", func() (json.RawMessage, error) { return gw.CloseSession(ctx, "s1") }, ""},
	}
	for _, c := range calls {
		if _, err := c.call(); err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		got := <-ch
		if got.path != c.path {
			t.Fatalf("path=%s, want %s", got.path, c.path)
		}
		if got.body["session_id"] != "s1" {
			t.Fatalf("%s: session_id=%v", c.path, got.body["session_id"])
		}
		if c.key != "" && got.body[c.key] == nil {
			t.Fatalf("%s: missing %s in %v", c.path, c.key, got.body)
		}
		if c.path == "/v1/streaming.task" && got.body["task_type"] != "talk" {
			t.Fatalf("task_type=%v", got.body["task_type"])
		}
	}
}

func TestGateway_ProviderErrorCarriesExtractedMessage(t *testing.T) {
	srv, _ := newProvider(t, http.StatusBadRequest, `{"message":"avatar not found"}`)
	gw, err := NewGateway(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	_, err = gw.CreateSession(context.Background())
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if domain.MessageOf(err) != "avatar not found" {
		t.Fatalf("message=%q", domain.MessageOf(err))
	}
	var de *domain.Error
	if !errors.As(err, &de) || de.Status != http.StatusBadRequest {
		t.Fatalf("status not recorded: %+v", de)
	}
}

func TestGateway_UnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw, err := NewGateway(testConfig(url))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	_, err = gw.Interrupt(context.Background(), "s1")
	if domain.KindOf(err) != domain.KindProviderUnreachable {
		t.Fatalf("kind=%s err=%v", domain.KindOf(err), err)
	}
}

func TestGateway_TimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	gw, err := NewGateway(cfg)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	start := time.Now()
	_, err = gw.SendText(context.Background(), "s1", "hello")
	if !errors.Is(err, domain.ErrProviderUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestGateway_WithHTTPClientLeavesCallerClientAlone(t *testing.T) {
	srv, _ := newProvider(t, http.StatusOK, `{"data":{"task_id":"t1"}}`)
	shared := &http.Client{Timeout: time.Minute}

	gw, err := NewGateway(testConfig(srv.URL), WithHTTPClient(shared))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	if shared.Timeout != time.Minute {
		t.Fatalf("caller client timeout changed to %v", shared.Timeout)
	}
	if gw.client == shared || gw.client.Timeout != 2*time.Second {
		t.Fatalf("gateway client not a configured copy: timeout=%v", gw.client.Timeout)
	}
	if _, err := gw.SendText(context.Background(), "s1", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
}
