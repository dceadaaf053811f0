// internal/engine/controller_test.go
package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexprep/arena/internal/models"
)

func newTestController(fs *fakeState, fq *fakeQuestions) *Controller {
	return &Controller{
		State:     fs,
		Questions: fq,
		Clock:     clockwork.NewFakeClock(),
		Rand:      &fakeRand{},
		Log:       testLogger(),
	}
}

func TestStartNextRoundPublishesRound(t *testing.T) {
	hostID := uuid.New()
	lob := &models.Lobby{
		ID:     uuid.New(),
		HostID: hostID,
		Mode:   models.ModeBossArena,
		Status: models.StatusWaiting,
	}
	fs := newFakeState(lob)
	qid := uuid.New()
	fq := &fakeQuestions{eligible: []uuid.UUID{qid}}

	err := newTestController(fs, fq).StartNextRound(context.Background(), lob, hostID)
	require.NoError(t, err)

	after := fs.lobbySnapshot()
	assert.Equal(t, models.StatusPlaying, after.Status)
	assert.Equal(t, 1, after.RoundsPlayed)
	require.NotNil(t, after.CurrentQuestionID)
	assert.Equal(t, qid, *after.CurrentQuestionID)
	assert.NotNil(t, after.RoundStartTime)
}

func TestStartNextRoundTopicFilterWithFallback(t *testing.T) {
	hostID := uuid.New()
	settings, _ := json.Marshal(models.LobbySettings{Topic: "history"})
	lob := &models.Lobby{
		ID:       uuid.New(),
		HostID:   hostID,
		Settings: settings,
	}
	fallback := uuid.New()
	fs := newFakeState(lob)
	fq := &fakeQuestions{
		eligible: []uuid.UUID{fallback},
		byTopic:  map[string][]uuid.UUID{}, // nothing tagged "history" yet
	}

	err := newTestController(fs, fq).StartNextRound(context.Background(), lob, hostID)
	require.NoError(t, err)
	assert.Equal(t, 2, fq.fetchCounter)
	assert.Equal(t, fallback, *fs.lobbySnapshot().CurrentQuestionID)
}

func TestStartNextRoundEmptyBank(t *testing.T) {
	hostID := uuid.New()
	lob := &models.Lobby{ID: uuid.New(), HostID: hostID}
	fs := newFakeState(lob)
	fq := &fakeQuestions{}

	err := newTestController(fs, fq).StartNextRound(context.Background(), lob, hostID)
	assert.ErrorIs(t, err, ErrEmptyQuestionBank)
	assert.Equal(t, 0, fs.startRoundCalls)
}

func TestStartNextRoundLostRaceIsBenign(t *testing.T) {
	hostID := uuid.New()
	lob := &models.Lobby{ID: uuid.New(), HostID: hostID}
	fs := newFakeState(lob)
	fq := &fakeQuestions{eligible: []uuid.UUID{uuid.New()}}
	ctrl := newTestController(fs, fq)

	// A stale snapshot: the store has already advanced past this round.
	fs.lobby.RoundsPlayed = 3
	stale := *lob
	stale.RoundsPlayed = 2

	err := ctrl.StartNextRound(context.Background(), &stale, hostID)
	assert.NoError(t, err)
	assert.Equal(t, 3, fs.lobbySnapshot().RoundsPlayed)
}

func TestStartNextRoundStaleHostWritesNothing(t *testing.T) {
	lob := &models.Lobby{ID: uuid.New(), HostID: uuid.New()}
	fs := newFakeState(lob)
	fq := &fakeQuestions{eligible: []uuid.UUID{uuid.New()}}

	// A session that lost host authority tries to advance anyway.
	err := newTestController(fs, fq).StartNextRound(context.Background(), lob, uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 0, fs.lobbySnapshot().RoundsPlayed)
	assert.Nil(t, fs.lobbySnapshot().CurrentQuestionID)
}
