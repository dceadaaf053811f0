// internal/engine/scoring.go
package engine

import (
	"github.com/lexprep/arena/internal/models"
)

// Rand is the source of chance for scoring and power-ups. Injected so tests
// can pin outcomes.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Arena scoring constants.
const (
	arenaBasePoints     = 100
	arenaMinPoints      = 50
	arenaSpeedRate      = 5 // points lost per elapsed second
	streakThreshold     = 3
	doubleDownPenalty   = -500
	bossDamageFactor    = 2
	powerUpStreakPeriod = 3
)

// BoardSize is the last tile index of the race board.
const BoardSize = 50

// ResolveInput carries everything the resolver needs about one answer.
// Streak is the pre-increment value.
type ResolveInput struct {
	Mode       models.GameMode
	Correct    bool
	TimeMs     int64
	Streak     int
	DoubleDown bool
	Inventory  []models.PowerUpKind
}

// Result is the resolver's verdict. PointsDelta is points in arena/sprint
// modes and movement steps in board mode. BossDamage is the proposed deduction
// from the lobby's shared resource (arena only, zero otherwise).
type Result struct {
	PointsDelta    int
	NewStreak      int
	GrantedPowerUp *models.PowerUpKind
	BossDamage     int
}

// Resolve is pure apart from draws on rng (power-up kind selection). It never
// touches shared state; the caller writes the outcome to its own row.
func Resolve(in ResolveInput, rng Rand) Result {
	var res Result

	switch in.Mode {
	case models.ModeBoardRace:
		res.PointsDelta = boardSteps(in.Correct, in.TimeMs)
	default:
		res.PointsDelta = arenaPoints(in)
	}

	if in.Correct && in.Streak >= streakThreshold {
		res.PointsDelta *= 2
	}

	// Double-down is a wager on points; board movement does not offer it.
	if in.DoubleDown && in.Mode != models.ModeBoardRace {
		if in.Correct {
			res.PointsDelta *= 2
		} else {
			res.PointsDelta = doubleDownPenalty
		}
	}

	if in.Correct {
		res.NewStreak = in.Streak + 1
	} else {
		res.NewStreak = 0
	}

	if grantDue(res.NewStreak, in.Inventory) {
		kind := models.AllPowerUps[rng.Intn(len(models.AllPowerUps))]
		res.GrantedPowerUp = &kind
	}

	if in.Mode == models.ModeBossArena && in.Correct && res.PointsDelta > 0 {
		res.BossDamage = res.PointsDelta * bossDamageFactor
	}

	return res
}

// arenaPoints applies the speed-decayed base score.
func arenaPoints(in ResolveInput) int {
	if !in.Correct {
		return 0
	}
	pts := arenaBasePoints - int(in.TimeMs*arenaSpeedRate/1000)
	if pts < arenaMinPoints {
		pts = arenaMinPoints
	}
	return pts
}

// boardSteps buckets answer time into movement steps.
func boardSteps(correct bool, timeMs int64) int {
	if !correct {
		return -3
	}
	switch {
	case timeMs < 3000:
		return 6
	case timeMs < 5000:
		return 5
	case timeMs < 8000:
		return 4
	case timeMs < 12000:
		return 3
	default:
		return 2
	}
}

func grantDue(newStreak int, inventory []models.PowerUpKind) bool {
	return newStreak > 0 &&
		newStreak%powerUpStreakPeriod == 0 &&
		len(inventory) < models.MaxInventory
}

// BoardEvent is a chance tile effect applied after a move.
type BoardEvent struct {
	Name  string `json:"name"`
	Steps int    `json:"steps"`
}

// boardEvents is the "campus event" table a landing tile can roll.
var boardEvents = []BoardEvent{
	{Name: "Admit Card Lost", Steps: -2},
	{Name: "Found Old Notes", Steps: 3},
	{Name: "Traffic Jam", Steps: 0},
	{Name: "Coffee Boost", Steps: 1},
}

const boardEventChance = 0.2

// ladderBonus is granted when a move lands exactly on a ladder tile.
const ladderBonus = 5

func isLadderTile(pos int) bool {
	return pos == 10 || pos == 20 || pos == 30
}

// Move is the outcome of applying steps to a board position.
type Move struct {
	NewPosition int
	Event       *BoardEvent
	Ladder      bool
}

// ApplyBoardMove clamps movement into [0, BoardSize], rolls the chance event,
// and applies ladder tiles. Position never goes below zero no matter how many
// misses accumulate.
func ApplyBoardMove(position, steps int, rng Rand) Move {
	var m Move
	m.NewPosition = clampTile(position + steps)

	if rng.Float64() < boardEventChance {
		ev := boardEvents[rng.Intn(len(boardEvents))]
		m.Event = &ev
		m.NewPosition = clampTile(m.NewPosition + ev.Steps)
	}

	if isLadderTile(m.NewPosition) {
		m.Ladder = true
		m.NewPosition = clampTile(m.NewPosition + ladderBonus)
	}

	return m
}

func clampTile(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > BoardSize {
		return BoardSize
	}
	return pos
}
