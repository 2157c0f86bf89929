// Package coord drives the client side of an avatar streaming session: it
// creates the provider session through the relay, negotiates the receive-only
// peer connection, and tracks connection and speaking state.
package coord

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/mentor-avatar/internal/core"
	"github.com/dkeye/mentor-avatar/internal/domain"
)

const (
	minSpeechDuration = 2000 * time.Millisecond
	perCharDuration   = 80 * time.Millisecond

	defaultReleaseTimeout   = 10 * time.Second
	defaultCandidateTimeout = 10 * time.Second
)

var (
	errInvalidSession = errors.New("invalid session response from provider")
	errInvalidStart   = errors.New("invalid start response from provider")
)

// EstimateSpeechDuration approximates how long the avatar talks for text.
// The provider reports no completion, so this is all we have. Length is
// counted in UTF-16 code units, the unit browsers report for text length.
func EstimateSpeechDuration(text string) time.Duration {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	d := time.Duration(n) * perCharDuration
	if d < minSpeechDuration {
		return minSpeechDuration
	}
	return d
}

// Timer is the part of *time.Timer the coordinator needs.
type Timer interface {
	Stop() bool
}

type session struct {
	id     domain.SessionID
	media  core.MediaConnection
	ctx    context.Context
	cancel context.CancelFunc

	published     bool
	videoAttached bool
	closing       bool
	released      chan struct{}
}

type Coordinator struct {
	relay     core.RelayAPI
	listener  core.Listener
	newMedia  core.MediaFactory
	surface   core.Surface
	afterFunc func(time.Duration, func()) Timer
	logger    zerolog.Logger

	releaseTimeout   time.Duration
	candidateTimeout time.Duration

	mu         sync.Mutex
	sess       *session
	connecting bool
	speaking   bool
	speakGen   uint64
	speakTimer Timer
}

type Option func(*Coordinator)

func WithMediaFactory(f core.MediaFactory) Option {
	return func(c *Coordinator) { c.newMedia = f }
}

func WithSurface(s core.Surface) Option {
	return func(c *Coordinator) { c.surface = s }
}

// WithAfterFunc replaces time.AfterFunc for the speaking timer.
func WithAfterFunc(fn func(time.Duration, func()) Timer) Option {
	return func(c *Coordinator) { c.afterFunc = fn }
}

func WithReleaseTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.releaseTimeout = d }
}

func New(relay core.RelayAPI, listener core.Listener, opts ...Option) *Coordinator {
	c := &Coordinator{
		relay:    relay,
		listener: listener,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		logger:           log.With().Str("module", "coord").Logger(),
		releaseTimeout:   defaultReleaseTimeout,
		candidateTimeout: defaultCandidateTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.surface == nil {
		c.surface = nopSurface{}
	}
	return c
}

func (c *Coordinator) emit(ev domain.Event) {
	if c.listener != nil {
		c.listener.HandleEvent(ev)
	}
}

// Connect creates a provider session and negotiates the peer connection. It
// returns once the remote description is committed; the connected status
// arrives later from the transport itself. On failure every partial resource
// is released and a disconnected status is emitted.
func (c *Coordinator) Connect(ctx context.Context) error {
	c.mu.Lock()
	if err := c.awaitReleaseLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.sess != nil || c.connecting {
		c.mu.Unlock()
		return domain.Validation("connect", "session already active")
	}
	if c.newMedia == nil {
		c.mu.Unlock()
		return domain.Negotiation("connect", errors.New("no media factory configured"))
	}
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	c.emit(domain.StatusEvent(domain.StatusConnecting))

	s, err := c.negotiate(ctx)
	if err != nil {
		c.logger.Error().Err(err).Str("kind", string(domain.KindOf(err))).Msg("connect failed")
		if c.abort(s) {
			c.emit(domain.ErrorEvent(err))
			c.emit(domain.StatusEvent(domain.StatusDisconnected))
		}
		return err
	}
	c.logger.Info().Str("session_id", string(s.id)).Msg("remote description committed")
	return nil
}

func (c *Coordinator) negotiate(ctx context.Context) (*session, error) {
	raw, err := c.relay.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	var created domain.Envelope[domain.NewSessionData]
	if err := json.Unmarshal(raw, &created); err != nil || created.Data == nil || created.Data.SessionID == "" {
		return nil, domain.Negotiation("create session", errInvalidSession)
	}
	data := *created.Data

	s := &session{id: data.SessionID, released: make(chan struct{})}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := c.logger.With().Str("session_id", string(s.id)).Logger()
	logger.Info().Int("ice_servers", len(data.ICE())).Msg("session created")

	media, err := c.newMedia(data.ICEOrFallback(), s.id)
	if err != nil {
		return s, domain.Negotiation("new peer connection", err)
	}
	s.media = media

	media.OnICECandidate(func(ci webrtc.ICECandidateInit) { c.relayCandidate(s, ci) })
	media.OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.handleTrack(ctx, s, track)
	})
	media.OnConnectionStateChange(func(st webrtc.PeerConnectionState) { c.handleState(s, st) })
	if err := media.Start(s.ctx); err != nil {
		return s, domain.Negotiation("start peer connection", err)
	}

	c.mu.Lock()
	c.sess = s
	s.published = true
	c.mu.Unlock()

	if err := media.AddRecvOnlyTransceivers(); err != nil {
		return s, domain.Negotiation("add transceivers", err)
	}
	offer, err := media.CreateAndSetOffer()
	if err != nil {
		return s, domain.Negotiation("create offer", err)
	}

	raw, err = c.relay.Start(ctx, s.id, *offer)
	if err != nil {
		return s, err
	}
	var started domain.Envelope[struct {
		SDP *webrtc.SessionDescription `json:"sdp"`
	}]
	if err := json.Unmarshal(raw, &started); err != nil || started.Data == nil || started.Data.SDP == nil {
		return s, domain.Negotiation("start session", errInvalidStart)
	}
	if err := media.ApplyAnswer(*started.Data.SDP); err != nil {
		return s, domain.Negotiation("apply answer", err)
	}
	return s, nil
}

// abort releases whatever a failed Connect left behind. It reports whether the
// session was still owned by this attempt; a session already handed to
// release is left to it.
func (c *Coordinator) abort(s *session) bool {
	if s == nil {
		return true
	}
	c.mu.Lock()
	if s.published && (c.sess != s || s.closing) {
		c.mu.Unlock()
		return false
	}
	s.closing = true
	c.stopSpeakingLocked()
	c.mu.Unlock()

	s.cancel()
	if s.media != nil {
		s.media.Close()
	}
	c.surface.Detach()

	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
	}
	c.mu.Unlock()
	close(s.released)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.releaseTimeout)
		defer cancel()
		if err := c.relay.Close(ctx, s.id); err != nil {
			c.logger.Warn().Err(err).Str("session_id", string(s.id)).Msg("close after failed connect")
		}
	}()
	return true
}

// relayCandidate forwards one local candidate without holding up negotiation.
func (c *Coordinator) relayCandidate(s *session, ci webrtc.ICECandidateInit) {
	if s.ctx.Err() != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, c.candidateTimeout)
		defer cancel()
		if err := c.relay.SendICE(ctx, s.id, ci); err != nil && s.ctx.Err() == nil {
			c.logger.Warn().Err(err).Str("session_id", string(s.id)).Msg("send ICE candidate")
		}
	}()
}

func (c *Coordinator) handleTrack(ctx context.Context, s *session, track *webrtc.TrackRemote) {
	c.mu.Lock()
	attach := c.liveLocked() == s && track.Kind() == webrtc.RTPCodecTypeVideo && !s.videoAttached
	if attach {
		s.videoAttached = true
	}
	c.mu.Unlock()

	if attach {
		c.surface.Attach(ctx, track)
		return
	}
	go c.surface.Drain(ctx, track)
}

func (c *Coordinator) handleState(s *session, st webrtc.PeerConnectionState) {
	c.mu.Lock()
	if c.liveLocked() != s {
		c.mu.Unlock()
		return
	}

	switch st {
	case webrtc.PeerConnectionStateConnected:
		c.mu.Unlock()
		c.emit(domain.StatusEvent(domain.StatusConnected))
	case webrtc.PeerConnectionStateDisconnected,
		webrtc.PeerConnectionStateFailed,
		webrtc.PeerConnectionStateClosed:
		s.closing = true
		c.stopSpeakingLocked()
		c.mu.Unlock()
		c.logger.Warn().Str("session_id", string(s.id)).Str("state", st.String()).Msg("transport dropped")
		c.emit(domain.StatusEvent(domain.StatusDisconnected))
		go c.teardown(context.Background(), s, false)
	default:
		c.mu.Unlock()
	}
}

// Speak submits text to the active session and raises the speaking flag
// until the estimated speech duration elapses.
func (c *Coordinator) Speak(ctx context.Context, text string) (json.RawMessage, error) {
	c.mu.Lock()
	s := c.liveLocked()
	if s == nil {
		c.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	c.stopSpeakingLocked()
	c.speaking = true
	gen := c.speakGen
	c.mu.Unlock()
	c.emit(domain.SpeakingEvent(true))

	ack, err := c.relay.Speak(ctx, s.id, text)
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", string(s.id)).Msg("speak failed")
		c.finishSpeaking(gen)
		c.emit(domain.ErrorEvent(err))
		return nil, err
	}

	c.mu.Lock()
	if gen == c.speakGen && c.speaking {
		c.speakTimer = c.afterFunc(EstimateSpeechDuration(text), func() { c.finishSpeaking(gen) })
	}
	c.mu.Unlock()
	return ack, nil
}

// finishSpeaking lowers the flag only if no later Speak, Interrupt or
// Disconnect has happened since generation gen was issued.
func (c *Coordinator) finishSpeaking(gen uint64) {
	c.mu.Lock()
	if gen != c.speakGen || !c.speaking {
		c.mu.Unlock()
		return
	}
	c.speaking = false
	c.speakTimer = nil
	c.mu.Unlock()
	c.emit(domain.SpeakingEvent(false))
}

// stopSpeakingLocked invalidates any pending timer. c.mu must be held.
func (c *Coordinator) stopSpeakingLocked() {
	c.speakGen++
	if c.speakTimer != nil {
		c.speakTimer.Stop()
		c.speakTimer = nil
	}
	c.speaking = false
}

// Interrupt drops the speaking flag at once and tells the provider on a best
// effort basis.
func (c *Coordinator) Interrupt(ctx context.Context) {
	c.mu.Lock()
	s := c.liveLocked()
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.stopSpeakingLocked()
	c.mu.Unlock()
	c.emit(domain.SpeakingEvent(false))

	if err := c.relay.Interrupt(ctx, s.id); err != nil {
		c.logger.Warn().Err(err).Str("session_id", string(s.id)).Msg("interrupt failed")
	}
}

// Disconnect ends the active session. Calling it with no session is a no-op.
// If the session is already being released, Disconnect waits for that to
// finish or for ctx to end.
func (c *Coordinator) Disconnect(ctx context.Context) {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return
	}
	if !c.release(ctx, s, true) {
		select {
		case <-s.released:
		case <-ctx.Done():
		}
	}
}

// release marks s closing and tears it down. It reports whether this call
// did the work.
func (c *Coordinator) release(ctx context.Context, s *session, emitStatus bool) bool {
	c.mu.Lock()
	if c.sess != s || s.closing {
		c.mu.Unlock()
		return false
	}
	s.closing = true
	c.stopSpeakingLocked()
	c.mu.Unlock()
	c.teardown(ctx, s, emitStatus)
	return true
}

// teardown runs in order: provider close, transport, surface, then status
// events. s stays in c.sess, marked closing, until all of that is done so a
// new Connect cannot overlap with any of it.
func (c *Coordinator) teardown(ctx context.Context, s *session, emitStatus bool) {
	closeCtx, cancel := context.WithTimeout(ctx, c.releaseTimeout)
	if err := c.relay.Close(closeCtx, s.id); err != nil {
		c.logger.Warn().Err(err).Str("session_id", string(s.id)).Msg("close session")
	}
	cancel()

	s.cancel()
	if s.media != nil {
		s.media.Close()
	}
	c.surface.Detach()
	c.logger.Info().Str("session_id", string(s.id)).Msg("session released")

	if emitStatus {
		c.emit(domain.StatusEvent(domain.StatusDisconnected))
	}
	c.emit(domain.SpeakingEvent(false))

	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()
	close(s.released)
}

// liveLocked returns the current session unless it is being released.
// c.mu must be held.
func (c *Coordinator) liveLocked() *session {
	if c.sess == nil || c.sess.closing {
		return nil
	}
	return c.sess
}

// awaitReleaseLocked blocks until no session is being released. c.mu must be
// held; it is dropped while waiting and held again on return.
func (c *Coordinator) awaitReleaseLocked(ctx context.Context) error {
	for c.sess != nil && c.sess.closing {
		done := c.sess.released
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			c.mu.Lock()
			return ctx.Err()
		}
		c.mu.Lock()
	}
	return nil
}

func (c *Coordinator) IsConnected() bool {
	c.mu.Lock()
	s := c.liveLocked()
	c.mu.Unlock()
	if s == nil || s.media == nil {
		return false
	}
	return s.media.ConnectionState() == webrtc.PeerConnectionStateConnected
}

func (c *Coordinator) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked() != nil
}

func (c *Coordinator) SessionID() domain.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.liveLocked(); s != nil {
		return s.id
	}
	return ""
}

func (c *Coordinator) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

type nopSurface struct{}

func (nopSurface) Attach(context.Context, *webrtc.TrackRemote) {}
func (nopSurface) Drain(context.Context, *webrtc.TrackRemote)  {}
func (nopSurface) Detach()                                     {}
