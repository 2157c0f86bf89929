package rtc

import (
	"errors"
	"fmt"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

var ErrNotAnswer = errors.New("remote description is not an answer")

// ValidateAnswer parses the provider answer before it is committed, so a
// malformed payload fails with a readable error instead of a half-applied
// remote description.
func ValidateAnswer(answer webrtc.SessionDescription) error {
	if answer.Type != webrtc.SDPTypeAnswer && answer.Type != webrtc.SDPTypePranswer {
		return fmt.Errorf("%w: got %q", ErrNotAnswer, answer.Type.String())
	}
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(answer.SDP)); err != nil {
		return fmt.Errorf("parse answer sdp: %w", err)
	}
	if len(parsed.MediaDescriptions) == 0 {
		return errors.New("answer sdp has no media sections")
	}
	return nil
}
