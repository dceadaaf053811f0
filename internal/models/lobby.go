// internal/models/lobby.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameMode selects the scoring rules a lobby plays under.
type GameMode string

const (
	ModeBoardRace GameMode = "BOARD_RACE"
	ModeBossArena GameMode = "BOSS_ARENA"
	ModeSprint    GameMode = "SPRINT"
)

// ValidMode reports whether m is a known game mode.
func ValidMode(m GameMode) bool {
	switch m {
	case ModeBoardRace, ModeBossArena, ModeSprint:
		return true
	}
	return false
}

// DefaultBossHP is the shared resource pool a BOSS_ARENA lobby starts with.
const DefaultBossHP = 10000

// LobbyStatus is the lobby life-cycle state.
type LobbyStatus string

const (
	StatusWaiting LobbyStatus = "WAITING"
	StatusPlaying LobbyStatus = "PLAYING"
	StatusEnded   LobbyStatus = "ENDED"
)

// Lobby is the shared session row coordinating one group of players through a
// sequence of rounds. Round fields (CurrentQuestionID, RoundStartTime,
// RoundsPlayed) are written only by the participant currently holding the host
// lease; SharedResource is multi-writer and mutated only through atomic
// decrements at the store.
type Lobby struct {
	ID     uuid.UUID   `json:"id"`
	Code   string      `json:"code"`
	HostID uuid.UUID   `json:"host_id"`
	Mode   GameMode    `json:"mode"`
	Status LobbyStatus `json:"status"`

	// Settings is mode-specific (laps / duration / difficulty) and opaque to
	// the round engine apart from the question filter fields.
	Settings json.RawMessage `json:"settings,omitempty"`

	// CurrentQuestionID and RoundStartTime identify the current round. They
	// are set atomically in one write and are either both nil or both set.
	CurrentQuestionID *uuid.UUID `json:"current_question_id,omitempty"`
	RoundStartTime    *time.Time `json:"round_start_time,omitempty"`

	// RoundsPlayed strictly increases and is the tie-breaker clients use to
	// tell a new round from a reconnect re-read of the same round.
	RoundsPlayed int `json:"rounds_played"`

	// SharedResource is the co-op boss HP pool. Only meaningful in BOSS_ARENA.
	SharedResource int `json:"shared_resource"`

	// HostLeaseUntil bounds host authority in time. The host session renews it
	// each heartbeat; once it lapses any session may take over via a
	// conditional write.
	HostLeaseUntil *time.Time `json:"host_lease_until,omitempty"`
}

// LobbySettings is the loosely-typed view of the Settings blob the engine
// cares about.
type LobbySettings struct {
	Laps       int    `json:"laps,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

// DecodedSettings unwraps the Settings blob. A nil or malformed blob yields
// the zero value; settings are advisory, never load-bearing.
func (l *Lobby) DecodedSettings() LobbySettings {
	var s LobbySettings
	if len(l.Settings) == 0 {
		return s
	}
	_ = json.Unmarshal(l.Settings, &s)
	return s
}

// InRound reports whether the lobby currently has a round published.
func (l *Lobby) InRound() bool {
	return l.CurrentQuestionID != nil && l.RoundStartTime != nil
}
