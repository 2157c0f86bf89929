package orch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

type fakeSession struct {
	mu          sync.Mutex
	connected   bool
	active      bool
	connectErr  error
	speakErr    error
	speakGate   chan struct{}
	spoken      []string
	disconnects int
	interrupts  int
}

func (f *fakeSession) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.active = true
	return nil
}

func (f *fakeSession) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.active, f.connected = false, false
}

func (f *fakeSession) Interrupt(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupts++
}

func (f *fakeSession) Speak(_ context.Context, text string) (json.RawMessage, error) {
	if f.speakGate != nil {
		<-f.speakGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return nil, f.speakErr
	}
	f.spoken = append(f.spoken, text)
	return json.RawMessage(`{}`), nil
}

func (f *fakeSession) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSession) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSession) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type captureView struct {
	mu     sync.Mutex
	events []core.UIEvent
}

func (v *captureView) Render(ev core.UIEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, ev)
}

func (v *captureView) messages() []core.UIEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []core.UIEvent
	for _, ev := range v.events {
		if ev.Type == "message" {
			out = append(out, ev)
		}
	}
	return out
}

type fixedResponder string

func (r fixedResponder) Reply(context.Context, string) (string, error) { return string(r), nil }

func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func start(t *testing.T, o *Orchestrator) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return cancel, stopped
}

func TestConnected_SpeaksWelcome(t *testing.T) {
	sess := &fakeSession{active: true, connected: true}
	view := &captureView{}
	o := New(sess, fixedResponder("ok"), view, WithWelcome("G'day!"))
	start(t, o)

	o.HandleEvent(domain.StatusEvent(domain.StatusConnected))

	if !eventually(t, func() bool { return len(sess.spokenTexts()) == 1 }) {
		t.Fatal("welcome was not spoken")
	}
	if got := sess.spokenTexts()[0]; got != "G'day!" {
		t.Fatalf("unexpected welcome %q", got)
	}
	msgs := view.messages()
	if len(msgs) != 1 || msgs[0].Role != domain.RoleAvatar || msgs[0].Text != "G'day!" {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
}

func TestSend_SingleInFlight(t *testing.T) {
	gate := make(chan struct{})
	sess := &fakeSession{active: true, connected: true, speakGate: gate}
	o := New(sess, fixedResponder("reply"), &captureView{})
	start(t, o)

	errc := make(chan error, 1)
	go func() { errc <- o.Send(context.Background(), "first") }()
	if !eventually(t, o.Sending) {
		t.Fatal("first send never started")
	}

	if err := o.Send(context.Background(), "second"); err != nil {
		t.Fatalf("dropped send should not fail: %v", err)
	}
	close(gate)
	if err := <-errc; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if got := sess.spokenTexts(); len(got) != 1 || got[0] != "reply" {
		t.Fatalf("expected exactly one speech, got %v", got)
	}
	if o.Sending() {
		t.Fatal("in-flight flag should be cleared")
	}
}

func TestSend_IgnoresBlankAndDisconnected(t *testing.T) {
	sess := &fakeSession{active: true, connected: true}
	o := New(sess, fixedResponder("reply"), &captureView{})
	start(t, o)

	_ = o.Send(context.Background(), "   \n")
	sess.mu.Lock()
	sess.connected = false
	sess.mu.Unlock()
	_ = o.Send(context.Background(), "hello")

	if got := sess.spokenTexts(); len(got) != 0 {
		t.Fatalf("nothing should be spoken, got %v", got)
	}
}

func TestSend_FailureAddsSystemMessage(t *testing.T) {
	sess := &fakeSession{active: true, connected: true, speakErr: domain.Provider("speak", 500, "boom")}
	view := &captureView{}
	o := New(sess, fixedResponder("reply"), view)
	start(t, o)

	if err := o.Send(context.Background(), "  hi  "); !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	ok := eventually(t, func() bool { return len(view.messages()) == 3 })
	if !ok {
		t.Fatalf("transcript: %+v", view.messages())
	}
	msgs := view.messages()
	if msgs[0].Role != domain.RoleUser || msgs[0].Text != "hi" {
		t.Fatalf("user line: %+v", msgs[0])
	}
	if msgs[2].Role != domain.RoleSystem || msgs[2].Text != MsgSendFailed {
		t.Fatalf("system line: %+v", msgs[2])
	}
}

func TestConnectFailure_ReportsInOrder(t *testing.T) {
	err := domain.Provider("new session", 401, "Unauthorized")
	sess := &fakeSession{connectErr: err}
	view := &captureView{}
	o := New(sess, fixedResponder("reply"), view)
	start(t, o)

	// the coordinator reports the failure before Connect returns
	o.HandleEvent(domain.ErrorEvent(err))
	if got := o.Connect(context.Background()); !errors.Is(got, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", got)
	}
	if !eventually(t, func() bool { return len(view.messages()) == 2 }) {
		t.Fatalf("transcript: %+v", view.messages())
	}
	msgs := view.messages()
	if !strings.Contains(msgs[0].Text, "Unauthorized") || msgs[1].Text != MsgConnectFailed {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
}

func TestRun_TearsDownActiveSession(t *testing.T) {
	sess := &fakeSession{active: true, connected: true}
	o := New(sess, fixedResponder("reply"), &captureView{})
	cancel, stopped := start(t, o)

	cancel()
	<-stopped
	if sess.disconnects != 1 {
		t.Fatalf("expected teardown disconnect, got %d", sess.disconnects)
	}
	// events after shutdown must not block
	o.HandleEvent(domain.StatusEvent(domain.StatusDisconnected))
}

func TestDisconnect_NoSessionIsNoop(t *testing.T) {
	sess := &fakeSession{}
	view := &captureView{}
	o := New(sess, fixedResponder("reply"), view)
	start(t, o)

	o.Disconnect(context.Background())
	if sess.disconnects != 0 {
		t.Fatal("no disconnect expected")
	}
}

func TestCannedResponder(t *testing.T) {
	r := NewCannedResponder()
	r.Pick = func(n int) int { return n - 1 }
	got, err := r.Reply(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if got != mentorReplies[len(mentorReplies)-1] {
		t.Fatalf("unexpected reply %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Reply(ctx, "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestConsoleView(t *testing.T) {
	var buf bytes.Buffer
	v := NewConsoleView(&buf)
	off := false
	v.Render(core.UIEvent{Type: "message", Role: domain.RoleUser, Text: "hello"})
	v.Render(core.UIEvent{Type: "speaking", Speaking: &off})
	v.Render(core.UIEvent{Type: "status", Status: domain.StatusConnected})

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "connected") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("speaking=false should not print, got %q", out)
	}
}
