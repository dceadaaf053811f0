// internal/models/powerup.go
package models

import "github.com/google/uuid"

// PowerUpKind enumerates the four power-ups a streak can grant.
type PowerUpKind string

const (
	PowerUpInk        PowerUpKind = "INK"
	PowerUpFog        PowerUpKind = "FOG"
	PowerUpFreeze     PowerUpKind = "FREEZE"
	PowerUpFiftyFifty PowerUpKind = "FIFTY_FIFTY"
)

// AllPowerUps is the grant pool, drawn from uniformly.
var AllPowerUps = []PowerUpKind{PowerUpInk, PowerUpFog, PowerUpFreeze, PowerUpFiftyFifty}

// MaxInventory bounds a participant's held power-ups.
const MaxInventory = 3

// Sabotage reports whether the kind targets opponents rather than the
// consuming participant.
func (k PowerUpKind) Sabotage() bool {
	return k == PowerUpInk || k == PowerUpFog
}

// Valid reports whether k is a known power-up kind.
func (k PowerUpKind) Valid() bool {
	for _, known := range AllPowerUps {
		if k == known {
			return true
		}
	}
	return false
}

// PowerUpEffect is the bus payload delivering a consumed power-up to the
// sessions it affects. Effects are scoped to the round they fired in; sessions
// drop anything whose Round no longer matches the lobby's rounds_played.
type PowerUpEffect struct {
	Kind PowerUpKind `json:"kind"`
	From uuid.UUID   `json:"from"`

	// Targets lists affected participant ids. Empty means self-scoped (the
	// consuming session applies it locally and nothing is delivered).
	Targets []uuid.UUID `json:"targets,omitempty"`

	Round int `json:"round"`
}
