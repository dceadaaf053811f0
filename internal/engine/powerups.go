// internal/engine/powerups.go
package engine

import (
	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/models"
)

// GrantPowerUp appends kind to the inventory unless it is full; excess grants
// are dropped, not queued. Returns the new inventory and whether it grew.
func GrantPowerUp(inventory []models.PowerUpKind, kind models.PowerUpKind) ([]models.PowerUpKind, bool) {
	if len(inventory) >= models.MaxInventory {
		return inventory, false
	}
	out := make([]models.PowerUpKind, 0, len(inventory)+1)
	out = append(out, inventory...)
	out = append(out, kind)
	return out, true
}

// ConsumePowerUp removes one instance of kind. Returns the new inventory and
// whether anything was removed.
func ConsumePowerUp(inventory []models.PowerUpKind, kind models.PowerUpKind) ([]models.PowerUpKind, bool) {
	for i, held := range inventory {
		if held == kind {
			out := make([]models.PowerUpKind, 0, len(inventory)-1)
			out = append(out, inventory[:i]...)
			out = append(out, inventory[i+1:]...)
			return out, true
		}
	}
	return inventory, false
}

// FilterFiftyFifty narrows a question's displayed options to the correct one
// plus one uniformly random incorrect one. Presentation-time only: the stored
// question is never mutated, and the returned slice is fresh.
func FilterFiftyFifty(q *models.Question, rng Rand) []models.Option {
	var correct *models.Option
	incorrect := make([]models.Option, 0, len(q.Options))
	for i := range q.Options {
		if q.Options[i].ID == q.CorrectOptionID {
			o := q.Options[i]
			correct = &o
		} else {
			incorrect = append(incorrect, q.Options[i])
		}
	}
	if correct == nil || len(incorrect) == 0 {
		// Malformed question; show it untouched rather than hide the answer.
		return append([]models.Option(nil), q.Options...)
	}

	pick := incorrect[rng.Intn(len(incorrect))]
	out := []models.Option{*correct, pick}
	// Preserve the catalogue's option order so the correct answer's slot gives
	// nothing away.
	if pick.ID < correct.ID {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

// EffectFor builds the bus payload for a consumed power-up. Sabotage kinds
// target every opponent; assist kinds are self-scoped and never leave the
// consuming session.
func EffectFor(kind models.PowerUpKind, from uuid.UUID, opponents []uuid.UUID, round int) models.PowerUpEffect {
	eff := models.PowerUpEffect{Kind: kind, From: from, Round: round}
	if kind.Sabotage() {
		eff.Targets = append([]uuid.UUID(nil), opponents...)
	}
	return eff
}
