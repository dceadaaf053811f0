// internal/database/lobby.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexprep/arena/internal/models"
)

const lobbyColumns = `
	id, code, host_id, mode, status, settings,
	current_question_id, round_start_time, rounds_played,
	shared_resource, host_lease_until`

type lobbyRow interface {
	Scan(dest ...any) error
}

func scanLobby(row lobbyRow) (*models.Lobby, error) {
	var l models.Lobby
	err := row.Scan(
		&l.ID,
		&l.Code,
		&l.HostID,
		&l.Mode,
		&l.Status,
		&l.Settings,
		&l.CurrentQuestionID,
		&l.RoundStartTime,
		&l.RoundsPlayed,
		&l.SharedResource,
		&l.HostLeaseUntil,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLobby inserts a new lobby row and grants the creator the first host
// lease.
func (s *Store) CreateLobby(ctx context.Context, lob *models.Lobby) error {
	q := `
	INSERT INTO game_lobbies (
		id, code, host_id, mode, status, settings,
		rounds_played, shared_resource, host_lease_until
	)
	VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	RETURNING ` + lobbyColumns
	row := s.pool.QueryRow(ctx, q,
		lob.ID, lob.Code, lob.HostID, lob.Mode, lob.Status,
		lob.Settings, lob.SharedResource, lob.HostLeaseUntil,
	)
	created, err := scanLobby(row)
	if err != nil {
		return fmt.Errorf("insert lobby: %w", err)
	}
	*lob = *created
	s.publishLobby(ctx, created)
	return nil
}

// GetLobby fetches a lobby by id.
func (s *Store) GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	q := `SELECT ` + lobbyColumns + ` FROM game_lobbies WHERE id = $1`
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get lobby %s: %w", id, err)
	}
	return lob, nil
}

// GetLobbyByCode resolves a human-readable join code.
func (s *Store) GetLobbyByCode(ctx context.Context, code string) (*models.Lobby, error) {
	q := `SELECT ` + lobbyColumns + ` FROM game_lobbies WHERE code = $1 AND status <> 'ENDED'`
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, code))
	if err != nil {
		return nil, fmt.Errorf("get lobby by code %q: %w", code, err)
	}
	return lob, nil
}

// ListOpenLobbies returns lobbies that have not ended.
func (s *Store) ListOpenLobbies(ctx context.Context) ([]*models.Lobby, error) {
	q := `SELECT ` + lobbyColumns + ` FROM game_lobbies WHERE status <> 'ENDED' ORDER BY code`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list lobbies: %w", err)
	}
	defer rows.Close()

	var lobbies []*models.Lobby
	for rows.Next() {
		lob, err := scanLobby(rows)
		if err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lob)
	}
	return lobbies, rows.Err()
}

// StartRound publishes a new round in one conditional write. The guard on
// rounds_played and host_id makes this a compare-and-write: a stale host or a
// concurrent advance misses the guard and writes nothing.
func (s *Store) StartRound(ctx context.Context, lobbyID, questionID uuid.UUID, at time.Time, prevRounds int, hostID uuid.UUID) (bool, error) {
	q := `
	UPDATE game_lobbies
	SET status = 'PLAYING',
	    current_question_id = $2,
	    round_start_time = $3,
	    rounds_played = rounds_played + 1
	WHERE id = $1 AND rounds_played = $4 AND host_id = $5
	RETURNING ` + lobbyColumns
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, lobbyID, questionID, at, prevRounds, hostID))
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("start round on lobby %s: %w", lobbyID, err)
	}
	s.publishLobby(ctx, lob)
	return true, nil
}

// ApplyBossDamage decrements the shared resource atomically, clamped at zero.
// Concurrent correct answers all land; none is lost to a read-modify-write
// race.
func (s *Store) ApplyBossDamage(ctx context.Context, lobbyID uuid.UUID, amount int) error {
	q := `
	UPDATE game_lobbies
	SET shared_resource = GREATEST(0, shared_resource - $2)
	WHERE id = $1
	RETURNING ` + lobbyColumns
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, lobbyID, amount))
	if err != nil {
		return fmt.Errorf("apply boss damage on lobby %s: %w", lobbyID, err)
	}
	s.publishLobby(ctx, lob)
	return nil
}

// RenewHostLease extends the lease iff hostID still holds authority.
func (s *Store) RenewHostLease(ctx context.Context, lobbyID, hostID uuid.UUID, until time.Time) (bool, error) {
	q := `
	UPDATE game_lobbies
	SET host_lease_until = $3
	WHERE id = $1 AND host_id = $2
	RETURNING ` + lobbyColumns
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, lobbyID, hostID, until))
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("renew host lease on lobby %s: %w", lobbyID, err)
	}
	s.publishLobby(ctx, lob)
	return true, nil
}

// AcquireHostLease hands authority to userID iff the current lease has
// lapsed. The condition makes concurrent takeover attempts race safely:
// exactly one wins.
func (s *Store) AcquireHostLease(ctx context.Context, lobbyID, userID uuid.UUID, until, now time.Time) (bool, error) {
	q := `
	UPDATE game_lobbies
	SET host_id = $2, host_lease_until = $3
	WHERE id = $1 AND (host_lease_until IS NULL OR host_lease_until < $4)
	RETURNING ` + lobbyColumns
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, lobbyID, userID, until, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire host lease on lobby %s: %w", lobbyID, err)
	}
	s.publishLobby(ctx, lob)
	return true, nil
}

// EndLobby terminates the lobby.
func (s *Store) EndLobby(ctx context.Context, lobbyID uuid.UUID) error {
	q := `
	UPDATE game_lobbies
	SET status = 'ENDED', current_question_id = NULL, round_start_time = NULL
	WHERE id = $1
	RETURNING ` + lobbyColumns
	lob, err := scanLobby(s.pool.QueryRow(ctx, q, lobbyID))
	if err != nil {
		return fmt.Errorf("end lobby %s: %w", lobbyID, err)
	}
	s.publishLobby(ctx, lob)
	return nil
}
