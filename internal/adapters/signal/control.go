package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
)

// handleConnect runs off the read loop so interrupt and ping stay responsive
// while negotiation is in progress.
func (ctl *SignalWSController) handleConnect(ctx context.Context, token string, conn core.SignalConnection) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(token) {
		log.Warn().Str("module", "signal").Str("client", token).Msg("connect rate limited")
		sendJSON(conn, core.UIEvent{Type: "error", Error: "too many connect attempts, try again shortly"})
		return
	}
	go func() {
		if err := ctl.Actions.Connect(ctx); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("client", token).Msg("connect failed")
		}
	}()
}

func (ctl *SignalWSController) handleDisconnect(ctx context.Context) {
	go ctl.Actions.Disconnect(ctx)
}

func (ctl *SignalWSController) handleInterrupt(ctx context.Context) {
	go ctl.Actions.Interrupt(ctx)
}

func (ctl *SignalWSController) handleSend(ctx context.Context, text string) {
	go func() {
		if err := ctl.Actions.Send(ctx, text); err != nil {
			log.Warn().Err(err).Str("module", "signal").Msg("send failed")
		}
	}()
}

func (ctl *SignalWSController) handlePing(conn core.SignalConnection) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	sendJSON(conn, resp)
}
