// Package media holds output surfaces for the avatar's remote tracks.
package media

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/h264writer"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type rtpWriter interface {
	WriteRTP(*rtp.Packet) error
	Close() error
}

// Recorder writes the attached video track to a file. With an empty path it
// only drains packets.
type Recorder struct {
	path string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Attach replaces any previously attached track.
func (r *Recorder) Attach(ctx context.Context, track *webrtc.TrackRemote) {
	r.Detach()

	logger := log.With().Str("module", "media").Str("track_id", track.ID()).Str("codec", track.Codec().MimeType).Logger()
	w, err := r.writerFor(track.Codec().MimeType)
	if err != nil {
		logger.Error().Err(err).Msg("open recording, draining instead")
		w = nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	logger.Info().Str("path", r.path).Msg("surface attached")
	go func() {
		defer close(done)
		ReadLoop(loopCtx, track, w, &logger)
	}()
}

// Detach stops the read loop and waits for the recording to be flushed.
func (r *Recorder) Detach() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Attached reports whether a track is currently bound.
func (r *Recorder) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Recorder) writerFor(mime string) (rtpWriter, error) {
	if r.path == "" {
		return nil, nil
	}
	switch {
	case strings.EqualFold(mime, webrtc.MimeTypeVP8):
		w, err := ivfwriter.New(r.path)
		if err != nil {
			return nil, err
		}
		return w, nil
	case strings.EqualFold(mime, webrtc.MimeTypeH264):
		w, err := h264writer.New(r.path)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, nil
	}
}

// Drain consumes a track nobody renders so its buffers do not fill up.
func (r *Recorder) Drain(ctx context.Context, track *webrtc.TrackRemote) {
	logger := log.With().Str("module", "media").Str("track_id", track.ID()).Str("kind", track.Kind().String()).Logger()
	ReadLoop(ctx, track, nil, &logger)
}

// ReadLoop reads RTP from track until ctx ends or the track closes, handing
// packets to w when it is non-nil.
func ReadLoop(ctx context.Context, track *webrtc.TrackRemote, w rtpWriter, logger *zerolog.Logger) {
	defer func() {
		if w != nil {
			if err := w.Close(); err != nil {
				logger.Error().Err(err).Msg("close recording")
			}
		}
	}()
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks ReadRTP once the surface is detached.
			_ = track.SetReadDeadline(time.Unix(1, 0))
		case <-stopped:
		}
	}()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("read loop ctx done")
			return
		default:
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("read loop stopped")
			return
		}
		if w == nil {
			continue
		}
		if err := w.WriteRTP(pkt); err != nil {
			logger.Error().Err(err).Msg("write RTP error, dropping writer")
			_ = w.Close()
			w = nil
		}
	}
}
