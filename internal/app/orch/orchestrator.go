// Package orch sequences user actions into coordinator calls and turns
// coordinator events into transcript and status updates for the views.
package orch

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

const (
	MsgConnectFailed = "Failed to connect. Please check your connection and try again."
	MsgSessionEnded  = "Session ended. Click Connect to start a new mentoring session."
	MsgSendFailed    = "Failed to send message. Please try again."

	defaultTeardownTimeout = 5 * time.Second
	queueSize              = 256
)

// Session is the coordinator surface the orchestrator drives.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	Interrupt(ctx context.Context)
	Speak(ctx context.Context, text string) (json.RawMessage, error)
	IsConnected() bool
	HasSession() bool
}

var _ core.Listener = (*Orchestrator)(nil)

type Orchestrator struct {
	session   Session
	responder Responder
	view      core.View
	welcome   string
	logger    zerolog.Logger

	teardownTimeout time.Duration

	queue   chan func(context.Context)
	done    chan struct{}
	sending atomic.Bool
}

type Option func(*Orchestrator)

func WithWelcome(text string) Option {
	return func(o *Orchestrator) { o.welcome = text }
}

func WithTeardownTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.teardownTimeout = d }
}

func New(session Session, responder Responder, view core.View, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:         session,
		responder:       responder,
		view:            view,
		logger:          log.With().Str("module", "orch").Logger(),
		teardownTimeout: defaultTeardownTimeout,
		queue:           make(chan func(context.Context), queueSize),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bind sets the session after construction, for when the session needs the
// orchestrator as its listener.
func (o *Orchestrator) Bind(session Session) {
	o.session = session
}

// Run renders queued updates in order until ctx is done, then tears down a
// live session.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	defer o.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-o.queue:
			fn(ctx)
		}
	}
}

func (o *Orchestrator) teardown() {
	if o.session == nil || !o.session.HasSession() {
		return
	}
	o.logger.Info().Msg("tearing down active session")
	ctx, cancel := context.WithTimeout(context.Background(), o.teardownTimeout)
	defer cancel()
	o.session.Disconnect(ctx)
}

func (o *Orchestrator) post(fn func(context.Context)) {
	select {
	case o.queue <- fn:
	case <-o.done:
	}
}

func (o *Orchestrator) render(ev core.UIEvent) {
	if o.view != nil {
		o.view.Render(ev)
	}
}

func (o *Orchestrator) say(role domain.Role, text string) {
	o.post(func(context.Context) {
		o.render(core.UIEvent{Type: "message", Role: role, Text: text})
	})
}

// HandleEvent implements core.Listener.
func (o *Orchestrator) HandleEvent(ev domain.Event) {
	o.post(func(ctx context.Context) { o.onEvent(ctx, ev) })
}

func (o *Orchestrator) onEvent(ctx context.Context, ev domain.Event) {
	switch ev.Type {
	case domain.EventStatus:
		o.render(core.UIEvent{Type: "status", Status: ev.Status})
		if ev.Status == domain.StatusConnected {
			o.greet(ctx)
		}
	case domain.EventSpeaking:
		speaking := ev.Speaking
		o.render(core.UIEvent{Type: "speaking", Speaking: &speaking})
	case domain.EventError:
		msg := domain.MessageOf(ev.Err)
		o.render(core.UIEvent{Type: "error", Error: msg})
		o.render(core.UIEvent{Type: "message", Role: domain.RoleSystem, Text: "Connection error: " + msg + ". Please try again."})
	}
}

func (o *Orchestrator) greet(ctx context.Context) {
	if o.welcome == "" {
		return
	}
	o.render(core.UIEvent{Type: "message", Role: domain.RoleAvatar, Text: o.welcome})
	go func() {
		if _, err := o.session.Speak(ctx, o.welcome); err != nil {
			o.logger.Warn().Err(err).Msg("welcome speech failed")
		}
	}()
}

func (o *Orchestrator) Connect(ctx context.Context) error {
	if err := o.session.Connect(ctx); err != nil {
		o.say(domain.RoleSystem, MsgConnectFailed)
		return err
	}
	return nil
}

func (o *Orchestrator) Disconnect(ctx context.Context) {
	if !o.session.HasSession() {
		return
	}
	o.session.Disconnect(ctx)
	o.say(domain.RoleSystem, MsgSessionEnded)
}

func (o *Orchestrator) Interrupt(ctx context.Context) {
	o.session.Interrupt(ctx)
}

// Send posts the user's text, asks the responder for a reply and has the
// avatar speak it. Only one send runs at a time; extra calls are dropped.
func (o *Orchestrator) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || !o.session.IsConnected() {
		return nil
	}
	if !o.sending.CompareAndSwap(false, true) {
		o.logger.Debug().Msg("send already in flight")
		return nil
	}
	defer o.sending.Store(false)

	o.say(domain.RoleUser, text)

	reply, err := o.responder.Reply(ctx, text)
	if err == nil {
		o.say(domain.RoleAvatar, reply)
		_, err = o.session.Speak(ctx, reply)
	}
	if err != nil {
		o.logger.Error().Err(err).Msg("send failed")
		o.say(domain.RoleSystem, MsgSendFailed)
		return err
	}
	return nil
}

// Sending reports whether a send is in flight.
func (o *Orchestrator) Sending() bool {
	return o.sending.Load()
}
