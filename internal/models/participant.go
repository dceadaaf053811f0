// internal/models/participant.go
package models

import "github.com/google/uuid"

// LastAnswer records the outcome of a participant's most recent submission.
// Round is the rounds_played value of the round it answered; the store refuses
// a second write carrying the same Round, which is what makes submission
// idempotent even if the session's local flag races.
type LastAnswer struct {
	Correct bool  `json:"correct"`
	TimeMs  int64 `json:"time_ms"`
	Round   int   `json:"round"`
}

// Participant is one user's durable record of a run through a lobby. Exactly
// one row exists per (lobby, user) pair; it is mutated only by its owning
// session and never deleted while the lobby lives.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	LobbyID     uuid.UUID `json:"lobby_id"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`

	// Score is points in BOSS_ARENA/SPRINT and the board position index in
	// BOARD_RACE.
	Score         int `json:"score"`
	CurrentStreak int `json:"current_streak"`

	// Inventory holds at most MaxInventory power-ups; grants past the cap are
	// dropped, never queued.
	Inventory []PowerUpKind `json:"inventory"`

	LastAnswer *LastAnswer `json:"last_answer,omitempty"`

	// Team is cosmetic only.
	Team string `json:"team,omitempty"`
}
