// internal/engine/errors.go
package engine

import "errors"

var (
	// ErrEmptyQuestionBank means no eligible question exists for the lobby's
	// filters. Reported to the host; the round is not advanced and the lobby
	// stays in its prior round. Recoverable by adding content.
	ErrEmptyQuestionBank = errors.New("no eligible questions in bank")

	// ErrRoundNotActive means an answer arrived outside the ACTIVE phase and
	// was dropped.
	ErrRoundNotActive = errors.New("round is not accepting answers")

	// ErrAlreadyAnswered means this session already submitted for the current
	// round. Submission is a no-op.
	ErrAlreadyAnswered = errors.New("round already answered")

	// ErrNotHost means a host-only action was attempted without holding host
	// authority.
	ErrNotHost = errors.New("participant does not hold host authority")

	// ErrPowerUpNotHeld means the session tried to consume a power-up that is
	// not in its inventory.
	ErrPowerUpNotHeld = errors.New("power-up not held")

	// ErrNoQuestion means no question is loaded for the current round yet.
	ErrNoQuestion = errors.New("no question loaded for current round")
)
