// internal/database/store.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/models"
)

// ChangePublisher receives every committed row change so subscribers on the
// lobby topic observe writes in commit order. Satisfied by *bus.Bus.
type ChangePublisher interface {
	PublishLobby(ctx context.Context, lob *models.Lobby) error
	PublishParticipant(ctx context.Context, p *models.Participant) error
}

// Store is the shared state store: lobby and participant rows plus the
// question catalogue, all behind one pgx pool. Every mutating method
// publishes the fresh row after commit; a failed publish is logged but does
// not fail the write (subscribers resync on their next read).
type Store struct {
	pool *pgxpool.Pool
	pub  ChangePublisher
	log  *logrus.Logger
}

// NewStore wires the pool to the change publisher.
func NewStore(pool *pgxpool.Pool, pub ChangePublisher, log *logrus.Logger) *Store {
	return &Store{pool: pool, pub: pub, log: log}
}

func (s *Store) publishLobby(ctx context.Context, lob *models.Lobby) {
	if err := s.pub.PublishLobby(ctx, lob); err != nil {
		s.log.WithError(err).WithField("lobby", lob.ID).Warn("lobby change publish failed")
	}
}

func (s *Store) publishParticipant(ctx context.Context, p *models.Participant) {
	if err := s.pub.PublishParticipant(ctx, p); err != nil {
		s.log.WithError(err).WithField("participant", p.ID).Warn("participant change publish failed")
	}
}
