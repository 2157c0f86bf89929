// Package signal bridges browser UIs to the session orchestrator over
// websockets: UI actions come in, transcript and status updates go out.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Actions is the orchestrator surface a UI can drive.
type Actions interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	Interrupt(ctx context.Context)
	Send(ctx context.Context, text string) error
}

type SignalWSController struct {
	Actions Actions
	Hub     *Hub
	Limiter *RateLimiter

	// DisconnectWhenEmpty ends the session once the last UI socket is gone.
	DisconnectWhenEmpty bool
}

func NewSignalWSController(actions Actions, hub *Hub, limiter *RateLimiter) *SignalWSController {
	return &SignalWSController{
		Actions: actions,
		Hub:     hub,
		Limiter: limiter,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal serves one UI socket. The pumps stop with the socket; actions
// it triggers run under ctx and survive it.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("client", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	connCtx, cancel := context.WithCancel(ctx)
	ctl.Hub.Bind(token, conn, cancel)

	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, ctx, token, conn)
}
