package http

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dkeye/mentor-avatar/internal/adapters/signal"
	"github.com/dkeye/mentor-avatar/internal/config"
	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

type fakeActions struct {
	mu          sync.Mutex
	connects    int
	connectCtx  context.Context
	disconnects int
	sent        []string
}

func (f *fakeActions) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.connectCtx = ctx
	return nil
}
func (f *fakeActions) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}
func (f *fakeActions) Interrupt(context.Context) {}
func (f *fakeActions) count(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *n
}
func (f *fakeActions) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func newUIServer(t *testing.T, actions signal.Actions, hub *signal.Hub, opts ...func(*signal.SignalWSController)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Mode: "test", Secret: "test-secret"}
	ctrl := signal.NewSignalWSController(actions, hub, signal.NewRateLimiter(1, time.Minute))
	for _, opt := range opts {
		opt(ctrl)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupUIRouter(ctx, cfg, ctrl))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv
}

func dialUI(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/ui"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	return ws
}

func TestUI_ReplaysStatusAndAnswersPing(t *testing.T) {
	hub := signal.NewHub(nil)
	hub.Render(core.UIEvent{Type: "status", Status: domain.StatusConnected})
	srv := newUIServer(t, &fakeActions{}, hub)
	ws := dialUI(t, srv)

	var first core.UIEvent
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Type != "status" || first.Status != domain.StatusConnected {
		t.Fatalf("expected status replay, got %+v", first)
	}

	if err := ws.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong core.UIEvent
	if err := ws.ReadJSON(&pong); err != nil {
		t.Fatalf("read: %v", err)
	}
	if pong.Type != "pong" {
		t.Fatalf("expected pong, got %+v", pong)
	}
}

func TestUI_ConnectIsRateLimited(t *testing.T) {
	actions := &fakeActions{}
	srv := newUIServer(t, actions, signal.NewHub(nil))
	ws := dialUI(t, srv)

	for range 2 {
		if err := ws.WriteJSON(map[string]string{"type": "connect"}); err != nil {
			t.Fatal(err)
		}
	}
	var ev core.UIEvent
	if err := ws.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "error" || !strings.Contains(ev.Error, "too many") {
		t.Fatalf("expected rate limit error, got %+v", ev)
	}
	actions.mu.Lock()
	defer actions.mu.Unlock()
	if actions.connects > 1 {
		t.Fatalf("expected at most one connect, got %d", actions.connects)
	}
}

func TestUI_UnknownTypeIsReported(t *testing.T) {
	srv := newUIServer(t, &fakeActions{}, signal.NewHub(nil))
	ws := dialUI(t, srv)

	if err := ws.WriteJSON(map[string]string{"type": "join"}); err != nil {
		t.Fatal(err)
	}
	var ev core.UIEvent
	if err := ws.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "error" {
		t.Fatalf("expected error, got %+v", ev)
	}
}

func TestUI_ClosingLastTabDisconnectsWithoutCancellingConnect(t *testing.T) {
	actions := &fakeActions{}
	srv := newUIServer(t, actions, signal.NewHub(nil), func(c *signal.SignalWSController) {
		c.DisconnectWhenEmpty = true
	})
	ws := dialUI(t, srv)

	if err := ws.WriteJSON(map[string]string{"type": "connect"}); err != nil {
		t.Fatal(err)
	}
	waitUntil(t, func() bool { return actions.count(&actions.connects) == 1 })
	_ = ws.Close()
	waitUntil(t, func() bool { return actions.count(&actions.disconnects) == 1 })

	actions.mu.Lock()
	defer actions.mu.Unlock()
	if err := actions.connectCtx.Err(); err != nil {
		t.Fatalf("connect context ended with the socket: %v", err)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestClientTokenIsStableAcrossRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Mode: "test", Secret: "test-secret"}
	r := SetupUIRouter(context.Background(), cfg, signal.NewSignalWSController(&fakeActions{}, signal.NewHub(nil), nil))
	var tokens []string
	r.GET("/whoami", func(c *gin.Context) {
		tokens = append(tokens, c.GetString("client_token"))
		c.Status(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	for range 2 {
		resp, err := client.Get(srv.URL + "/whoami")
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()
	}
	if len(tokens) != 2 || tokens[0] == "" || tokens[0] != tokens[1] {
		t.Fatalf("expected one stable token, got %v", tokens)
	}
}
