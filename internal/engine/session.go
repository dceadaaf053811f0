// internal/engine/session.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/models"
)

// Event is a message pushed to the connected client.
type Event map[string]interface{}

// SessionConfig wires one participant's reactor.
type SessionConfig struct {
	LobbyID     uuid.UUID
	Participant *models.Participant

	State     State
	Questions QuestionStore
	Bus       Bus

	Clock      clockwork.Clock
	RoundClock RoundClock

	// LeaseTTL is how long a host lease lasts; LeaseHeartbeat is how often the
	// host renews it. A lease observed expired for more than one heartbeat is
	// treated as lost authority.
	LeaseTTL       time.Duration
	LeaseHeartbeat time.Duration

	Rand Rand
	Log  *logrus.Logger
}

// Session is one participant's event-driven reactor: it subscribes to the
// lobby's change topic, runs a local 1 Hz tick, and is the only writer of its
// own participant row. The session whose user holds the host lease also runs
// the round controller. There is no central game loop anywhere; every session
// independently re-derives phase from the persisted round fields.
type Session struct {
	cfg        SessionConfig
	controller *Controller

	mu           sync.Mutex
	lobby        *models.Lobby
	participants map[uuid.UUID]*models.Participant
	question     *models.Question

	// hasAnswered is reset exactly once per observed round change. The store's
	// last_answer_round guard backs it up if a duplicate slips through.
	hasAnswered   bool
	observedRound int

	// activeEffects are power-up effects on this participant for the current
	// round only; they never survive rounds_played incrementing.
	activeEffects []models.PowerUpKind

	stalledReported   bool
	emptyBankReported bool
	lastLeaseRenew    time.Time

	out chan Event
}

// NewSession builds a session. Run must be called to start it.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		cfg: cfg,
		controller: &Controller{
			State:     cfg.State,
			Questions: cfg.Questions,
			Clock:     cfg.Clock,
			Rand:      cfg.Rand,
			Log:       cfg.Log,
		},
		participants: make(map[uuid.UUID]*models.Participant),
		out:          make(chan Event, 32),
	}
}

// Events is the stream the transport layer drains to the client.
func (s *Session) Events() <-chan Event {
	return s.out
}

// Run subscribes, reads the initial state, then reacts to bus changes and
// local ticks until ctx is cancelled. Leaving a lobby is just cancelling ctx:
// the subscription and ticker are torn down and no distributed cleanup runs,
// since a session holds no exclusive resource.
func (s *Session) Run(ctx context.Context) error {
	changes, cancel, err := s.cfg.Bus.Subscribe(ctx, s.cfg.LobbyID)
	if err != nil {
		return fmt.Errorf("subscribe to lobby topic: %w", err)
	}
	defer cancel()

	if err := s.resync(ctx); err != nil {
		return fmt.Errorf("initial lobby read: %w", err)
	}
	s.emitLobbyState()

	ticker := s.cfg.Clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch, ok := <-changes:
			if !ok {
				return errors.New("change subscription closed")
			}
			s.handleChange(ctx, ch)
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

// resync reads the authoritative rows. On reconnect the answered flag is
// recovered from the participant's own last_answer_round, so a re-read of the
// same round never re-opens submission.
func (s *Session) resync(ctx context.Context) error {
	lob, err := s.cfg.State.GetLobby(ctx, s.cfg.LobbyID)
	if err != nil {
		return err
	}
	parts, err := s.cfg.State.ListParticipants(ctx, s.cfg.LobbyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lobby = lob
	s.observedRound = lob.RoundsPlayed
	for _, p := range parts {
		s.participants[p.ID] = p
	}
	me := s.participants[s.cfg.Participant.ID]
	s.hasAnswered = me != nil && me.LastAnswer != nil && me.LastAnswer.Round == lob.RoundsPlayed
	s.loadQuestionLocked(ctx)
	return nil
}

// handleChange folds one bus notification into local state.
func (s *Session) handleChange(ctx context.Context, ch models.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ch.Kind {
	case models.ChangeLobby:
		if ch.Lobby == nil {
			return
		}
		s.lobby = ch.Lobby
		if ch.Lobby.RoundsPlayed != s.observedRound {
			// New round: reset per-round state exactly once.
			s.observedRound = ch.Lobby.RoundsPlayed
			s.hasAnswered = false
			s.activeEffects = nil
			s.question = nil
			s.stalledReported = false
			s.emptyBankReported = false
			s.loadQuestionLocked(ctx)
		}
		s.emit(Event{
			"type":  "lobby",
			"lobby": ch.Lobby,
			"clock": s.snapshotLocked(),
		})

	case models.ChangeParticipant:
		if ch.Participant == nil {
			return
		}
		s.participants[ch.Participant.ID] = ch.Participant
		s.emit(Event{
			"type":        "participant",
			"participant": ch.Participant,
		})

	case models.ChangeEffect:
		if ch.Effect == nil || s.lobby == nil {
			return
		}
		if ch.Effect.Round != s.lobby.RoundsPlayed {
			return // effect from a dead round
		}
		if !s.effectTargetsMeLocked(ch.Effect) {
			return
		}
		s.activeEffects = append(s.activeEffects, ch.Effect.Kind)
		s.emit(Event{
			"type": "effect",
			"kind": ch.Effect.Kind,
			"from": ch.Effect.From,
		})
	}
}

func (s *Session) effectTargetsMeLocked(eff *models.PowerUpEffect) bool {
	for _, t := range eff.Targets {
		if t == s.cfg.Participant.ID {
			return true
		}
	}
	return false
}

// tick runs once per second: redraw clock, and perform host duties or
// failover watching. Store failures here are logged and retried next tick,
// never propagated.
func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob := s.lobby
	if lob == nil {
		return
	}
	now := s.cfg.Clock.Now()
	snap := s.snapshotLocked()

	s.emit(Event{"type": "clock", "phase": snap.Phase, "seconds_remaining": snap.SecondsRemaining})

	if lob.Status == models.StatusEnded {
		return
	}

	if lob.HostID == s.cfg.Participant.UserID {
		s.hostDutiesLocked(ctx, lob, now, snap)
	} else {
		s.watchForStallLocked(ctx, lob, now)
	}
}

// hostDutiesLocked renews the lease and advances the round when the clock
// says the lobby is idle.
func (s *Session) hostDutiesLocked(ctx context.Context, lob *models.Lobby, now time.Time, snap Snapshot) {
	if s.lastLeaseRenew.IsZero() || now.Sub(s.lastLeaseRenew) >= s.cfg.LeaseHeartbeat {
		ok, err := s.cfg.State.RenewHostLease(ctx, lob.ID, s.cfg.Participant.UserID, now.Add(s.cfg.LeaseTTL))
		switch {
		case err != nil:
			s.cfg.Log.WithError(err).WithField("lobby", lob.ID).Warn("lease renewal failed; retrying next tick")
		case !ok:
			s.cfg.Log.WithField("lobby", lob.ID).Info("host authority lost to another session")
		default:
			s.lastLeaseRenew = now
		}
	}

	if lob.Status != models.StatusPlaying || snap.Phase != PhaseIdle {
		return
	}
	err := s.controller.StartNextRound(ctx, lob, s.cfg.Participant.UserID)
	switch {
	case errors.Is(err, ErrEmptyQuestionBank):
		if !s.emptyBankReported {
			s.emptyBankReported = true
			s.emit(Event{"type": "error", "message": "question bank is empty; add questions to continue"})
		}
	case err != nil:
		s.cfg.Log.WithError(err).WithField("lobby", lob.ID).Warn("round advance failed; retrying next tick")
	}
}

// watchForStallLocked detects an expired host lease, surfaces the stall to the
// client once, and races to take the lease over. The conditional write makes
// sure exactly one contender wins.
func (s *Session) watchForStallLocked(ctx context.Context, lob *models.Lobby, now time.Time) {
	if lob.Status != models.StatusPlaying || lob.HostLeaseUntil == nil {
		return
	}
	if now.Before(lob.HostLeaseUntil.Add(s.cfg.LeaseHeartbeat)) {
		return
	}

	if !s.stalledReported {
		s.stalledReported = true
		s.emit(Event{"type": "lobby_stalled", "message": "host connection lost; electing a new host"})
	}

	ok, err := s.cfg.State.AcquireHostLease(ctx, lob.ID, s.cfg.Participant.UserID, now.Add(s.cfg.LeaseTTL), now)
	if err != nil {
		s.cfg.Log.WithError(err).WithField("lobby", lob.ID).Warn("lease takeover failed; retrying next tick")
		return
	}
	if ok {
		s.lastLeaseRenew = now
		s.cfg.Log.WithFields(logrus.Fields{
			"lobby": lob.ID,
			"user":  s.cfg.Participant.UserID,
		}).Info("host authority acquired after lease expiry")
	}
}

// SubmitAnswer resolves and records this participant's answer for the current
// round. It is a no-op when the round was already answered, and answers are
// rejected once the phase has left ACTIVE. Elapsed time is measured here,
// against the authoritative round start, never taken from the client.
func (s *Session) SubmitAnswer(ctx context.Context, optionID string, doubleDown bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob := s.lobby
	if lob == nil || lob.Status != models.StatusPlaying || !lob.InRound() {
		return ErrRoundNotActive
	}
	now := s.cfg.Clock.Now()
	if snap := s.snapshotLocked(); snap.Phase != PhaseActive {
		return ErrRoundNotActive
	}
	if s.hasAnswered {
		return ErrAlreadyAnswered
	}

	if s.question == nil {
		s.loadQuestionLocked(ctx)
	}
	q := s.question
	if q == nil {
		return ErrNoQuestion
	}

	me := s.meLocked()
	timeMs := now.Sub(*lob.RoundStartTime).Milliseconds()
	if timeMs < 0 {
		timeMs = 0
	}
	correct := optionID == q.CorrectOptionID

	res := Resolve(ResolveInput{
		Mode:       lob.Mode,
		Correct:    correct,
		TimeMs:     timeMs,
		Streak:     me.CurrentStreak,
		DoubleDown: doubleDown,
		Inventory:  me.Inventory,
	}, s.cfg.Rand)

	inventory := me.Inventory
	if res.GrantedPowerUp != nil {
		inventory, _ = GrantPowerUp(inventory, *res.GrantedPowerUp)
	}

	patch := AnswerPatch{
		Round:     lob.RoundsPlayed,
		Correct:   correct,
		TimeMs:    timeMs,
		NewStreak: res.NewStreak,
		Inventory: inventory,
	}

	result := Event{
		"type":         "answer_result",
		"correct":      correct,
		"points_delta": res.PointsDelta,
		"new_streak":   res.NewStreak,
	}
	if res.GrantedPowerUp != nil {
		result["granted_power_up"] = *res.GrantedPowerUp
	}

	if lob.Mode == models.ModeBoardRace {
		mv := ApplyBoardMove(me.Score, res.PointsDelta, s.cfg.Rand)
		pos := mv.NewPosition
		patch.Position = &pos
		result["position"] = mv.NewPosition
		if mv.Event != nil {
			result["event"] = mv.Event
		}
		if mv.Ladder {
			result["ladder"] = true
		}
	} else {
		patch.ScoreDelta = res.PointsDelta
	}

	ok, err := s.cfg.State.ApplyAnswer(ctx, me.ID, patch)
	if err != nil {
		// Flag stays down so the player can retry within the round.
		return fmt.Errorf("record answer: %w", err)
	}
	s.hasAnswered = true
	if !ok {
		// A duplicate raced past the local flag; the store guard held and the
		// row changed exactly once. Recovered silently.
		s.cfg.Log.WithField("participant", me.ID).Debug("duplicate answer suppressed by round guard")
		return nil
	}

	if lob.Mode == models.ModeBossArena && res.BossDamage > 0 {
		if err := s.cfg.State.ApplyBossDamage(ctx, lob.ID, res.BossDamage); err != nil {
			s.cfg.Log.WithError(err).WithField("lobby", lob.ID).Warn("boss damage write failed")
		}
	}

	s.emit(result)
	return nil
}

// UsePowerUp consumes a held power-up. Assist kinds apply to this session
// only; sabotage kinds are published to the lobby topic addressed to every
// opponent. All effects expire with the round.
func (s *Session) UsePowerUp(ctx context.Context, kind models.PowerUpKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return fmt.Errorf("unknown power-up kind %q", kind)
	}
	lob := s.lobby
	if lob == nil || lob.Status != models.StatusPlaying {
		return ErrRoundNotActive
	}
	if snap := s.snapshotLocked(); snap.Phase != PhaseActive {
		return ErrRoundNotActive
	}

	me := s.meLocked()
	inventory, held := ConsumePowerUp(me.Inventory, kind)
	if !held {
		return ErrPowerUpNotHeld
	}
	if err := s.cfg.State.SetInventory(ctx, me.ID, inventory); err != nil {
		return fmt.Errorf("consume power-up: %w", err)
	}

	used := Event{"type": "power_up_used", "kind": kind}

	if kind.Sabotage() {
		opponents := make([]uuid.UUID, 0, len(s.participants))
		for id := range s.participants {
			if id != me.ID {
				opponents = append(opponents, id)
			}
		}
		eff := EffectFor(kind, me.ID, opponents, lob.RoundsPlayed)
		if err := s.cfg.Bus.PublishEffect(ctx, lob.ID, eff); err != nil {
			s.cfg.Log.WithError(err).WithField("lobby", lob.ID).Warn("sabotage effect publish failed")
		}
	} else {
		s.activeEffects = append(s.activeEffects, kind)
		if kind == models.PowerUpFiftyFifty && s.question != nil {
			used["options"] = FilterFiftyFifty(s.question, s.cfg.Rand)
		}
	}

	s.emit(used)
	return nil
}

// StartRound is the explicit host trigger (first round from WAITING, or
// forcing the next one once the clock is off ACTIVE).
func (s *Session) StartRound(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob := s.lobby
	if lob == nil || lob.Status == models.StatusEnded {
		return ErrRoundNotActive
	}
	if lob.HostID != s.cfg.Participant.UserID {
		return ErrNotHost
	}
	if snap := s.snapshotLocked(); snap.Phase == PhaseActive {
		return fmt.Errorf("round in progress")
	}
	return s.controller.StartNextRound(ctx, lob, s.cfg.Participant.UserID)
}

// EndLobby terminates the game for everyone. Host only.
func (s *Session) EndLobby(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob := s.lobby
	if lob == nil || lob.Status == models.StatusEnded {
		return ErrRoundNotActive
	}
	if lob.HostID != s.cfg.Participant.UserID {
		return ErrNotHost
	}
	return s.cfg.State.EndLobby(ctx, lob.ID)
}

// ActiveEffects returns the effects applied to this participant in the
// current round.
func (s *Session) ActiveEffects() []models.PowerUpKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PowerUpKind(nil), s.activeEffects...)
}

// loadQuestionLocked fetches the current round's question. Failure is
// tolerated; the next caller retries.
func (s *Session) loadQuestionLocked(ctx context.Context) {
	if s.lobby == nil || s.lobby.CurrentQuestionID == nil {
		return
	}
	q, err := s.cfg.Questions.FetchQuestion(ctx, *s.lobby.CurrentQuestionID)
	if err != nil {
		s.cfg.Log.WithError(err).WithField("question", *s.lobby.CurrentQuestionID).Warn("question fetch failed")
		return
	}
	s.question = q
}

func (s *Session) meLocked() *models.Participant {
	if p, ok := s.participants[s.cfg.Participant.ID]; ok {
		return p
	}
	return s.cfg.Participant
}

func (s *Session) snapshotLocked() Snapshot {
	if s.lobby == nil {
		return Snapshot{Phase: PhaseIdle}
	}
	return s.cfg.RoundClock.Derive(s.lobby.CurrentQuestionID, s.lobby.RoundStartTime, s.cfg.Clock.Now())
}

// emitLobbyState sends the full current state, used once after resync.
func (s *Session) emitLobbyState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]*models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		parts = append(parts, p)
	}
	s.emit(Event{
		"type":         "lobby_state",
		"lobby":        s.lobby,
		"participants": parts,
		"your_id":      s.cfg.Participant.ID,
		"clock":        s.snapshotLocked(),
	})
}

// emit pushes an event without blocking. A full or abandoned channel drops
// the event; the transport is responsible for keeping up.
func (s *Session) emit(ev Event) {
	select {
	case s.out <- ev:
	default:
		evType, _ := ev["type"].(string)
		s.cfg.Log.WithFields(logrus.Fields{
			"participant": s.cfg.Participant.ID,
			"event":       evType,
		}).Warn("session event channel full; dropped event")
	}
}
