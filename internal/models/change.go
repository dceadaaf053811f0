// internal/models/change.go
package models

import "github.com/google/uuid"

// ChangeKind discriminates the payload of a Change.
type ChangeKind string

const (
	ChangeLobby       ChangeKind = "lobby"
	ChangeParticipant ChangeKind = "participant"
	ChangeEffect      ChangeKind = "effect"
)

// Change is one event on a lobby's change-notification topic. The store
// publishes a Change after every committed write; delivery is at-least-once
// and ordered per lobby.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	LobbyID uuid.UUID  `json:"lobby_id"`

	Lobby       *Lobby         `json:"lobby,omitempty"`
	Participant *Participant   `json:"participant,omitempty"`
	Effect      *PowerUpEffect `json:"effect,omitempty"`
}
