// internal/engine/powerups_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexprep/arena/internal/models"
)

func TestGrantPowerUpCap(t *testing.T) {
	inv, grew := GrantPowerUp(nil, models.PowerUpInk)
	require.True(t, grew)
	inv, grew = GrantPowerUp(inv, models.PowerUpFog)
	require.True(t, grew)
	inv, grew = GrantPowerUp(inv, models.PowerUpFreeze)
	require.True(t, grew)

	// Fourth grant is dropped, not queued.
	inv, grew = GrantPowerUp(inv, models.PowerUpFiftyFifty)
	assert.False(t, grew)
	assert.Equal(t, []models.PowerUpKind{models.PowerUpInk, models.PowerUpFog, models.PowerUpFreeze}, inv)
}

func TestConsumePowerUp(t *testing.T) {
	held := []models.PowerUpKind{models.PowerUpInk, models.PowerUpFog, models.PowerUpInk}

	inv, ok := ConsumePowerUp(held, models.PowerUpInk)
	require.True(t, ok)
	assert.Equal(t, []models.PowerUpKind{models.PowerUpFog, models.PowerUpInk}, inv)

	_, ok = ConsumePowerUp(inv, models.PowerUpFreeze)
	assert.False(t, ok)

	// The original slice is untouched.
	assert.Len(t, held, 3)
}

func TestFilterFiftyFifty(t *testing.T) {
	q := &models.Question{
		ID: uuid.New(),
		Options: []models.Option{
			{ID: "A", Text: "one"},
			{ID: "B", Text: "two"},
			{ID: "C", Text: "three"},
			{ID: "D", Text: "four"},
		},
		CorrectOptionID: "C",
	}

	opts := FilterFiftyFifty(q, &fakeRand{ints: []int{0}})
	require.Len(t, opts, 2)
	assert.Equal(t, "A", opts[0].ID)
	assert.Equal(t, "C", opts[1].ID)

	// The stored question keeps all four options.
	assert.Len(t, q.Options, 4)
}

func TestFilterFiftyFiftyMalformedQuestion(t *testing.T) {
	q := &models.Question{
		Options:         []models.Option{{ID: "A"}, {ID: "B"}},
		CorrectOptionID: "Z",
	}
	opts := FilterFiftyFifty(q, &fakeRand{})
	assert.Len(t, opts, 2)
}

func TestEffectFor(t *testing.T) {
	from := uuid.New()
	opponents := []uuid.UUID{uuid.New(), uuid.New()}

	eff := EffectFor(models.PowerUpFog, from, opponents, 4)
	assert.Equal(t, opponents, eff.Targets)
	assert.Equal(t, 4, eff.Round)

	self := EffectFor(models.PowerUpFreeze, from, opponents, 4)
	assert.Empty(t, self.Targets)
}
