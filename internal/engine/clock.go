// internal/engine/clock.go
package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Phase is where the current round sits in its question/reveal/idle cycle.
type Phase string

const (
	PhaseActive Phase = "ACTIVE"
	PhaseReveal Phase = "REVEAL"
	PhaseIdle   Phase = "IDLE"
)

// Default round timings, matching the live game.
const (
	DefaultQuestionDuration = 15 * time.Second
	DefaultRevealDuration   = 3 * time.Second
)

// Snapshot is one derived view of the round clock.
type Snapshot struct {
	Phase            Phase `json:"phase"`
	SecondsRemaining int   `json:"seconds_remaining"`
}

// RoundClock derives round phase from the two persisted round fields plus a
// caller-supplied now. Every session evaluates the same function against the
// same persisted fields, so no two honest sessions can disagree about phase by
// more than clock skew; nothing anywhere owns a ticking server timer.
type RoundClock struct {
	QuestionDuration time.Duration
	RevealDuration   time.Duration
}

// NewRoundClock returns a RoundClock with the default timings.
func NewRoundClock() RoundClock {
	return RoundClock{
		QuestionDuration: DefaultQuestionDuration,
		RevealDuration:   DefaultRevealDuration,
	}
}

// Derive is pure and side-effect free. Missing round fields mean the lobby is
// between rounds (IDLE). A start time ahead of now (clock skew between the
// writer and this reader) clamps to a full round rather than going negative.
func (rc RoundClock) Derive(questionID *uuid.UUID, startTime *time.Time, now time.Time) Snapshot {
	if questionID == nil || startTime == nil {
		return Snapshot{Phase: PhaseIdle}
	}

	elapsed := now.Sub(*startTime)
	if elapsed < 0 {
		return Snapshot{
			Phase:            PhaseActive,
			SecondsRemaining: int(rc.QuestionDuration / time.Second),
		}
	}

	if elapsed < rc.QuestionDuration {
		remaining := rc.QuestionDuration - elapsed
		return Snapshot{
			Phase:            PhaseActive,
			SecondsRemaining: int(math.Ceil(remaining.Seconds())),
		}
	}

	if elapsed < rc.QuestionDuration+rc.RevealDuration {
		return Snapshot{Phase: PhaseReveal}
	}

	return Snapshot{Phase: PhaseIdle}
}
