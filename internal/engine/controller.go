// internal/engine/controller.go
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/models"
)

// eligibleBatchSize caps how many candidate ids one round pick fetches.
const eligibleBatchSize = 50

// Controller advances rounds. It runs inside exactly one session per lobby,
// the one holding the host lease; everything it does funnels into a single
// compare-and-write on the lobby row, so a stale controller can never clobber
// a fresher round.
type Controller struct {
	State     State
	Questions QuestionStore
	Clock     clockwork.Clock
	Rand      Rand
	Log       *logrus.Logger
}

// StartNextRound picks the next question and publishes the round start.
// Returns ErrEmptyQuestionBank when no eligible question exists (nothing is
// written; the lobby stays in its prior round). Losing the compare-and-write
// race is benign and returns nil: someone else already advanced.
func (c *Controller) StartNextRound(ctx context.Context, lob *models.Lobby, hostID uuid.UUID) error {
	settings := lob.DecodedSettings()
	filter := QuestionFilter{
		Topic:      settings.Topic,
		Difficulty: settings.Difficulty,
		Limit:      eligibleBatchSize,
	}

	ids, err := c.Questions.FetchEligible(ctx, filter)
	if err != nil {
		return fmt.Errorf("fetch eligible questions: %w", err)
	}

	// Fall back to the unfiltered bank before declaring it empty, mirroring
	// the live game's behavior when a topic has no content yet.
	if len(ids) == 0 && (filter.Topic != "" || filter.Difficulty != "") {
		ids, err = c.Questions.FetchEligible(ctx, QuestionFilter{Limit: eligibleBatchSize})
		if err != nil {
			return fmt.Errorf("fetch fallback questions: %w", err)
		}
	}
	if len(ids) == 0 {
		return ErrEmptyQuestionBank
	}

	questionID := ids[c.Rand.Intn(len(ids))]
	now := c.Clock.Now().UTC()

	ok, err := c.State.StartRound(ctx, lob.ID, questionID, now, lob.RoundsPlayed, hostID)
	if err != nil {
		return fmt.Errorf("start round write: %w", err)
	}
	if !ok {
		c.Log.WithFields(logrus.Fields{
			"lobby": lob.ID,
			"round": lob.RoundsPlayed,
		}).Debug("round start lost compare-and-write; another writer advanced")
		return nil
	}

	c.Log.WithFields(logrus.Fields{
		"lobby":    lob.ID,
		"question": questionID,
		"round":    lob.RoundsPlayed + 1,
	}).Info("round started")
	return nil
}
