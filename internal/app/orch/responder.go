package orch

import (
	"context"
	"math/rand/v2"
)

// Responder produces the mentor's reply to a user message.
type Responder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

var mentorReplies = []string{
	"That's a great question about your research. Let me ask you this - what do you think are the key variables you need to consider?",
	"Interesting approach! Have you looked at how the falling particle receiver systems handle similar challenges? The CSIRO research at Newcastle might give you some insights.",
	"I appreciate you thinking through this carefully. Before I share my thoughts, what experiments have you considered to test your hypothesis?",
	"Good progress! Remember, in concentrated solar thermal research, we always need to balance efficiency with practical implementation. What trade-offs are you seeing?",
	"That reminds me of some work we did with the ASTRI collaboration. Have you reviewed the thermal storage data from those trials?",
	"Excellent thinking! The key with thermal energy storage is understanding the heat transfer mechanisms. What's your current model predicting?",
}

// CannedResponder answers with a random canned mentor line.
type CannedResponder struct {
	Replies []string
	// Pick returns an index in [0, n). Defaults to rand.IntN.
	Pick func(n int) int
}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{Replies: mentorReplies, Pick: rand.IntN}
}

func (r *CannedResponder) Reply(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	pick := r.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return r.Replies[pick(len(r.Replies))], nil
}
