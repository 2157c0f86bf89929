package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx, actx context.Context, token string, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", token).Msg("readPump closing")
		ctl.Hub.Unbind(token, c)
		c.Close()
		if ctl.DisconnectWhenEmpty && ctl.Hub.Count() == 0 {
			log.Info().Str("module", "signal").Msg("last UI client left, disconnecting")
			go ctl.Actions.Disconnect(actx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("client", token).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("client", token).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(actx, token, c, data)
		}
	}
}

type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, token string, c core.SignalConnection, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		sendJSON(c, core.UIEvent{Type: "error", Error: "malformed message"})
		return
	}

	switch msg.Type {
	case "connect":
		ctl.handleConnect(ctx, token, c)
	case "disconnect":
		ctl.handleDisconnect(ctx)
	case "interrupt":
		ctl.handleInterrupt(ctx)
	case "send":
		ctl.handleSend(ctx, msg.Text)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", msg.Type).Msg("unknown signal")
		sendJSON(c, core.UIEvent{Type: "error", Error: "unknown message type: " + msg.Type})
	}
}

func sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
