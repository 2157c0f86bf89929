package core

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/mentor-avatar/internal/domain"
)

type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	// AddRecvOnlyTransceivers asks the remote side for one audio and one video stream.
	AddRecvOnlyTransceivers() error
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	ApplyAnswer(webrtc.SessionDescription) error
	ConnectionState() webrtc.PeerConnectionState
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
}

// MediaFactory builds a peer connection for one provider session from the
// ICE servers the provider handed out.
type MediaFactory func(servers []domain.ICEServer, sid domain.SessionID) (MediaConnection, error)

// Surface is where the avatar video ends up.
type Surface interface {
	// Attach binds the video track that should be rendered.
	Attach(ctx context.Context, track *webrtc.TrackRemote)
	// Drain consumes a track that is not rendered.
	Drain(ctx context.Context, track *webrtc.TrackRemote)
	Detach()
}
