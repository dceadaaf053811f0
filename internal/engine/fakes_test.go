// internal/engine/fakes_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/models"
)

// fakeState is an in-memory State honoring the same write guards as the
// store. Every committed write is recorded in changes, which tests replay
// into sessions by hand.
type fakeState struct {
	mu           sync.Mutex
	lobby        *models.Lobby
	participants map[uuid.UUID]*models.Participant
	changes      []models.Change

	startRoundCalls int
	renewCalls      int
	acquireCalls    int
}

func newFakeState(lob *models.Lobby, parts ...*models.Participant) *fakeState {
	fs := &fakeState{
		lobby:        lob,
		participants: make(map[uuid.UUID]*models.Participant),
	}
	for _, p := range parts {
		fs.participants[p.ID] = p
	}
	return fs
}

func (fs *fakeState) GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.lobby == nil || fs.lobby.ID != id {
		return nil, errors.New("lobby not found")
	}
	cp := *fs.lobby
	return &cp, nil
}

func (fs *fakeState) StartRound(ctx context.Context, lobbyID, questionID uuid.UUID, at time.Time, prevRounds int, hostID uuid.UUID) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.startRoundCalls++
	if fs.lobby.RoundsPlayed != prevRounds || fs.lobby.HostID != hostID {
		return false, nil
	}
	fs.lobby.Status = models.StatusPlaying
	qid := questionID
	start := at
	fs.lobby.CurrentQuestionID = &qid
	fs.lobby.RoundStartTime = &start
	fs.lobby.RoundsPlayed++
	fs.recordLobbyLocked()
	return true, nil
}

func (fs *fakeState) ApplyBossDamage(ctx context.Context, lobbyID uuid.UUID, amount int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.lobby.SharedResource -= amount
	if fs.lobby.SharedResource < 0 {
		fs.lobby.SharedResource = 0
	}
	fs.recordLobbyLocked()
	return nil
}

func (fs *fakeState) RenewHostLease(ctx context.Context, lobbyID, hostID uuid.UUID, until time.Time) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.renewCalls++
	if fs.lobby.HostID != hostID {
		return false, nil
	}
	u := until
	fs.lobby.HostLeaseUntil = &u
	fs.recordLobbyLocked()
	return true, nil
}

func (fs *fakeState) AcquireHostLease(ctx context.Context, lobbyID, userID uuid.UUID, until, now time.Time) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.acquireCalls++
	if fs.lobby.HostLeaseUntil != nil && !fs.lobby.HostLeaseUntil.Before(now) {
		return false, nil
	}
	fs.lobby.HostID = userID
	u := until
	fs.lobby.HostLeaseUntil = &u
	fs.recordLobbyLocked()
	return true, nil
}

func (fs *fakeState) ListParticipants(ctx context.Context, lobbyID uuid.UUID) ([]*models.Participant, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]*models.Participant, 0, len(fs.participants))
	for _, p := range fs.participants {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (fs *fakeState) ApplyAnswer(ctx context.Context, participantID uuid.UUID, patch AnswerPatch) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, ok := fs.participants[participantID]
	if !ok {
		return false, errors.New("participant not found")
	}
	if p.LastAnswer != nil && p.LastAnswer.Round == patch.Round {
		return false, nil
	}
	if patch.Position != nil {
		p.Score = *patch.Position
	} else {
		p.Score += patch.ScoreDelta
	}
	p.CurrentStreak = patch.NewStreak
	p.Inventory = patch.Inventory
	p.LastAnswer = &models.LastAnswer{
		Correct: patch.Correct,
		TimeMs:  patch.TimeMs,
		Round:   patch.Round,
	}
	fs.recordParticipantLocked(p)
	return true, nil
}

func (fs *fakeState) SetInventory(ctx context.Context, participantID uuid.UUID, inv []models.PowerUpKind) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, ok := fs.participants[participantID]
	if !ok {
		return errors.New("participant not found")
	}
	p.Inventory = inv
	fs.recordParticipantLocked(p)
	return nil
}

func (fs *fakeState) EndLobby(ctx context.Context, lobbyID uuid.UUID) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.lobby.Status = models.StatusEnded
	fs.lobby.CurrentQuestionID = nil
	fs.lobby.RoundStartTime = nil
	fs.recordLobbyLocked()
	return nil
}

func (fs *fakeState) recordLobbyLocked() {
	cp := *fs.lobby
	fs.changes = append(fs.changes, models.Change{
		Kind:    models.ChangeLobby,
		LobbyID: cp.ID,
		Lobby:   &cp,
	})
}

func (fs *fakeState) recordParticipantLocked(p *models.Participant) {
	cp := *p
	fs.changes = append(fs.changes, models.Change{
		Kind:        models.ChangeParticipant,
		LobbyID:     cp.LobbyID,
		Participant: &cp,
	})
}

func (fs *fakeState) participant(id uuid.UUID) models.Participant {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return *fs.participants[id]
}

func (fs *fakeState) lobbySnapshot() models.Lobby {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return *fs.lobby
}

// fakeQuestions serves a fixed catalogue.
type fakeQuestions struct {
	eligible     []uuid.UUID
	byTopic      map[string][]uuid.UUID
	questions    map[uuid.UUID]*models.Question
	eligibleErr  error
	fetchCounter int
}

func (fq *fakeQuestions) FetchEligible(ctx context.Context, filter QuestionFilter) ([]uuid.UUID, error) {
	fq.fetchCounter++
	if fq.eligibleErr != nil {
		return nil, fq.eligibleErr
	}
	if filter.Topic != "" {
		return fq.byTopic[filter.Topic], nil
	}
	return fq.eligible, nil
}

func (fq *fakeQuestions) FetchQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, ok := fq.questions[id]
	if !ok {
		return nil, errors.New("question not found")
	}
	return q, nil
}

// fakeBus records published effects; Subscribe hands back an open channel the
// test can feed by hand.
type fakeBus struct {
	mu      sync.Mutex
	effects []models.PowerUpEffect
	ch      chan models.Change
}

func newFakeBus() *fakeBus {
	return &fakeBus{ch: make(chan models.Change, 32)}
}

func (fb *fakeBus) Subscribe(ctx context.Context, lobbyID uuid.UUID) (<-chan models.Change, func(), error) {
	return fb.ch, func() {}, nil
}

func (fb *fakeBus) PublishEffect(ctx context.Context, lobbyID uuid.UUID, effect models.PowerUpEffect) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.effects = append(fb.effects, effect)
	return nil
}

func (fb *fakeBus) lastEffect() *models.PowerUpEffect {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.effects) == 0 {
		return nil
	}
	return &fb.effects[len(fb.effects)-1]
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// drainEvents empties the session's outbound channel.
func drainEvents(s *Session) []Event {
	var out []Event
	for {
		select {
		case ev := <-s.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventOfType(events []Event, typ string) Event {
	for _, ev := range events {
		if ev["type"] == typ {
			return ev
		}
	}
	return nil
}
