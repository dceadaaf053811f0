// internal/database/participant.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexprep/arena/internal/engine"
	"github.com/lexprep/arena/internal/models"
)

const participantColumns = `
	id, lobby_id, user_id, display_name, avatar_url, team,
	score, current_streak, inventory,
	last_answer_correct, last_answer_time_ms, last_answer_round`

func scanParticipant(row lobbyRow) (*models.Participant, error) {
	var (
		p         models.Participant
		inventory []byte
		correct   *bool
		timeMs    *int64
		round     *int
	)
	err := row.Scan(
		&p.ID,
		&p.LobbyID,
		&p.UserID,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Team,
		&p.Score,
		&p.CurrentStreak,
		&inventory,
		&correct,
		&timeMs,
		&round,
	)
	if err != nil {
		return nil, err
	}
	if len(inventory) > 0 {
		if err := json.Unmarshal(inventory, &p.Inventory); err != nil {
			return nil, fmt.Errorf("decode inventory for participant %s: %w", p.ID, err)
		}
	}
	if round != nil {
		la := models.LastAnswer{Round: *round}
		if correct != nil {
			la.Correct = *correct
		}
		if timeMs != nil {
			la.TimeMs = *timeMs
		}
		p.LastAnswer = &la
	}
	return &p, nil
}

// JoinLobby inserts the participant row for (lobby, user), or returns the
// existing one: a duplicate join is success, not an error. Only a real insert
// publishes a change.
func (s *Store) JoinLobby(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	inventory, err := json.Marshal(p.Inventory)
	if err != nil {
		return nil, fmt.Errorf("encode inventory: %w", err)
	}

	q := `
	INSERT INTO game_participants (
		id, lobby_id, user_id, display_name, avatar_url, team,
		score, current_streak, inventory
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (lobby_id, user_id) DO NOTHING
	RETURNING ` + participantColumns
	row := s.pool.QueryRow(ctx, q,
		p.ID, p.LobbyID, p.UserID, p.DisplayName, p.AvatarURL, p.Team,
		p.Score, p.CurrentStreak, inventory,
	)
	inserted, err := scanParticipant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already joined; hand back the existing row.
		return s.GetParticipantByUser(ctx, p.LobbyID, p.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("join lobby %s: %w", p.LobbyID, err)
	}
	s.publishParticipant(ctx, inserted)
	return inserted, nil
}

// GetParticipant fetches a participant row by id.
func (s *Store) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	q := `SELECT ` + participantColumns + ` FROM game_participants WHERE id = $1`
	p, err := scanParticipant(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get participant %s: %w", id, err)
	}
	return p, nil
}

// GetParticipantByUser fetches the unique row for a (lobby, user) pair.
func (s *Store) GetParticipantByUser(ctx context.Context, lobbyID, userID uuid.UUID) (*models.Participant, error) {
	q := `SELECT ` + participantColumns + ` FROM game_participants WHERE lobby_id = $1 AND user_id = $2`
	p, err := scanParticipant(s.pool.QueryRow(ctx, q, lobbyID, userID))
	if err != nil {
		return nil, fmt.Errorf("get participant for user %s in lobby %s: %w", userID, lobbyID, err)
	}
	return p, nil
}

// ListParticipants returns every participant in the lobby.
func (s *Store) ListParticipants(ctx context.Context, lobbyID uuid.UUID) ([]*models.Participant, error) {
	q := `SELECT ` + participantColumns + ` FROM game_participants WHERE lobby_id = $1 ORDER BY display_name`
	rows, err := s.pool.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("list participants for lobby %s: %w", lobbyID, err)
	}
	defer rows.Close()

	var parts []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ApplyAnswer writes one answer outcome, guarded on last_answer_round
// differing from the submitted round. A replay misses the guard, changes
// nothing, and returns false: the row mutates exactly once per round no
// matter how many submits race in.
func (s *Store) ApplyAnswer(ctx context.Context, participantID uuid.UUID, patch engine.AnswerPatch) (bool, error) {
	inventory, err := json.Marshal(patch.Inventory)
	if err != nil {
		return false, fmt.Errorf("encode inventory: %w", err)
	}

	var row pgx.Row
	if patch.Position != nil {
		q := `
		UPDATE game_participants
		SET score = $2,
		    current_streak = $3,
		    inventory = $4,
		    last_answer_correct = $5,
		    last_answer_time_ms = $6,
		    last_answer_round = $7
		WHERE id = $1 AND last_answer_round IS DISTINCT FROM $7
		RETURNING ` + participantColumns
		row = s.pool.QueryRow(ctx, q, participantID,
			*patch.Position, patch.NewStreak, inventory,
			patch.Correct, patch.TimeMs, patch.Round)
	} else {
		q := `
		UPDATE game_participants
		SET score = score + $2,
		    current_streak = $3,
		    inventory = $4,
		    last_answer_correct = $5,
		    last_answer_time_ms = $6,
		    last_answer_round = $7
		WHERE id = $1 AND last_answer_round IS DISTINCT FROM $7
		RETURNING ` + participantColumns
		row = s.pool.QueryRow(ctx, q, participantID,
			patch.ScoreDelta, patch.NewStreak, inventory,
			patch.Correct, patch.TimeMs, patch.Round)
	}

	p, err := scanParticipant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("apply answer for participant %s: %w", participantID, err)
	}
	s.publishParticipant(ctx, p)
	return true, nil
}

// SetInventory replaces the participant's power-up inventory.
func (s *Store) SetInventory(ctx context.Context, participantID uuid.UUID, inv []models.PowerUpKind) error {
	inventory, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	q := `
	UPDATE game_participants
	SET inventory = $2
	WHERE id = $1
	RETURNING ` + participantColumns
	p, err := scanParticipant(s.pool.QueryRow(ctx, q, participantID, inventory))
	if err != nil {
		return fmt.Errorf("set inventory for participant %s: %w", participantID, err)
	}
	s.publishParticipant(ctx, p)
	return nil
}
