// internal/engine/state.go
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/models"
)

// State is the slice of the shared state store the engine writes through.
// Implementations must publish a change to the lobby topic after every
// committed write; the engine itself never publishes row changes.
type State interface {
	GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error)

	// StartRound publishes a new round with a single conditional write:
	// status=PLAYING, question and start time set, rounds_played incremented.
	// The write is guarded on (rounds_played == prevRounds AND host_id ==
	// hostID); a false return means the guard missed (concurrent advance or
	// lost authority) and nothing was written.
	StartRound(ctx context.Context, lobbyID, questionID uuid.UUID, at time.Time, prevRounds int, hostID uuid.UUID) (bool, error)

	// ApplyBossDamage decrements the lobby's shared resource atomically,
	// clamped at zero. Concurrent callers never lose damage.
	ApplyBossDamage(ctx context.Context, lobbyID uuid.UUID, amount int) error

	// RenewHostLease extends the lease iff hostID still holds authority.
	RenewHostLease(ctx context.Context, lobbyID, hostID uuid.UUID, until time.Time) (bool, error)

	// AcquireHostLease transfers authority to userID iff the current lease
	// has lapsed as of now. Exactly one concurrent caller wins.
	AcquireHostLease(ctx context.Context, lobbyID, userID uuid.UUID, until, now time.Time) (bool, error)

	ListParticipants(ctx context.Context, lobbyID uuid.UUID) ([]*models.Participant, error)

	// ApplyAnswer writes one answer outcome to the participant's own row,
	// guarded on last_answer_round differing from patch.Round. A false return
	// means the round was already answered and the row is unchanged.
	ApplyAnswer(ctx context.Context, participantID uuid.UUID, patch AnswerPatch) (bool, error)

	// SetInventory replaces the participant's power-up inventory.
	SetInventory(ctx context.Context, participantID uuid.UUID, inventory []models.PowerUpKind) error

	// EndLobby terminates the lobby and clears its round fields.
	EndLobby(ctx context.Context, lobbyID uuid.UUID) error
}

// AnswerPatch is the row delta produced by one resolved answer. Exactly one of
// ScoreDelta (arena/sprint, added to score) or Position (board, absolute) is
// meaningful, selected by Position being non-nil.
type AnswerPatch struct {
	Round      int
	Correct    bool
	TimeMs     int64
	ScoreDelta int
	Position   *int
	NewStreak  int
	Inventory  []models.PowerUpKind
}

// QuestionFilter narrows eligible questions for a round.
type QuestionFilter struct {
	Topic      string
	Difficulty string
	Limit      int
}

// QuestionStore is the external question catalogue.
type QuestionStore interface {
	FetchEligible(ctx context.Context, filter QuestionFilter) ([]uuid.UUID, error)
	FetchQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
}

// Bus is the change-notification substrate. Subscribe delivers every change
// committed to the lobby, at least once, in commit order. The returned cancel
// tears down the subscription and closes the channel.
type Bus interface {
	Subscribe(ctx context.Context, lobbyID uuid.UUID) (<-chan models.Change, func(), error)

	// PublishEffect broadcasts a consumed power-up to the lobby topic. Used
	// for sabotage delivery; row changes are published by the State
	// implementation instead.
	PublishEffect(ctx context.Context, lobbyID uuid.UUID, effect models.PowerUpEffect) error
}
