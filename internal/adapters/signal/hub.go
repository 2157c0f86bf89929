package signal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickClient
)

// Policy decides what happens to a client that cannot keep up.
type Policy interface {
	OnBackPressure(client string) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(string) BackpressureAction {
	return KickClient
}

var _ core.View = (*Hub)(nil)

type clientEntry struct {
	conn   core.SignalConnection
	cancel context.CancelFunc
}

// Hub tracks connected UI clients and fans orchestrator output out to them.
// It implements core.View.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*clientEntry
	status  *core.UIEvent
	policy  Policy
}

func NewHub(policy Policy) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{
		clients: make(map[string]*clientEntry),
		policy:  policy,
	}
}

// Bind registers conn for client, replacing (and closing) an older tab of the
// same client. The latest status is replayed to the new connection.
func (h *Hub) Bind(client string, conn core.SignalConnection, cancel context.CancelFunc) {
	h.mu.Lock()
	old := h.clients[client]
	h.clients[client] = &clientEntry{conn: conn, cancel: cancel}
	status := h.status
	h.mu.Unlock()

	if old != nil {
		old.cancel()
		old.conn.Close()
	}
	if status != nil {
		sendJSON(conn, *status)
	}
	log.Info().Str("module", "signal.hub").Str("client", client).Msg("bound client")
}

// Unbind removes client only if conn is still the registered connection.
func (h *Hub) Unbind(client string, conn core.SignalConnection) {
	h.mu.Lock()
	e, ok := h.clients[client]
	if !ok || e.conn != conn {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	e.cancel()
	log.Info().Str("module", "signal.hub").Str("client", client).Msg("unbound client")
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Render(ev core.UIEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.hub").Msg("marshal event")
		return
	}

	h.mu.Lock()
	if ev.Type == "status" {
		snap := ev
		h.status = &snap
	}
	targets := make(map[string]*clientEntry, len(h.clients))
	for id, e := range h.clients {
		targets[id] = e
	}
	h.mu.Unlock()

	for id, e := range targets {
		err := e.conn.TrySend(b)
		if !errors.Is(err, ErrBackpressure) {
			continue
		}
		switch h.policy.OnBackPressure(id) {
		case KickClient:
			log.Warn().Str("module", "signal.hub").Str("client", id).Msg("kicking slow client")
			h.Unbind(id, e.conn)
			e.conn.Close()
		case DropFrame, NoAction:
		}
	}
}
