// internal/bus/bus.go
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/models"
)

// Bus is the change-notification substrate: a Redis pub/sub topic per lobby.
// Every committed write to a lobby's rows is published here, so each
// subscriber eventually observes every change in commit order. Delivery is
// at-least-once; consumers must tolerate re-delivery.
type Bus struct {
	rdb *redis.Client
	log *logrus.Logger
}

// New wraps an already-connected Redis client.
func New(rdb *redis.Client, log *logrus.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func topic(lobbyID uuid.UUID) string {
	return "arena:lobby:" + lobbyID.String()
}

// PublishLobby pushes a full lobby row to the lobby topic.
func (b *Bus) PublishLobby(ctx context.Context, lob *models.Lobby) error {
	return b.publish(ctx, lob.ID, models.Change{
		Kind:    models.ChangeLobby,
		LobbyID: lob.ID,
		Lobby:   lob,
	})
}

// PublishParticipant pushes a full participant row to its lobby topic.
func (b *Bus) PublishParticipant(ctx context.Context, p *models.Participant) error {
	return b.publish(ctx, p.LobbyID, models.Change{
		Kind:        models.ChangeParticipant,
		LobbyID:     p.LobbyID,
		Participant: p,
	})
}

// PublishEffect delivers a consumed power-up to the lobby topic.
func (b *Bus) PublishEffect(ctx context.Context, lobbyID uuid.UUID, effect models.PowerUpEffect) error {
	return b.publish(ctx, lobbyID, models.Change{
		Kind:    models.ChangeEffect,
		LobbyID: lobbyID,
		Effect:  &effect,
	})
}

func (b *Bus) publish(ctx context.Context, lobbyID uuid.UUID, ch models.Change) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := b.rdb.Publish(ctx, topic(lobbyID), data).Err(); err != nil {
		return fmt.Errorf("publish change to %s: %w", topic(lobbyID), err)
	}
	return nil
}

// Subscribe opens the lobby topic and forwards decoded changes until the
// returned cancel runs or ctx ends. Malformed payloads are logged and
// skipped, never fatal.
func (b *Bus) Subscribe(ctx context.Context, lobbyID uuid.UUID) (<-chan models.Change, func(), error) {
	ps := b.rdb.Subscribe(ctx, topic(lobbyID))
	// Force the subscription to be established before returning, so callers
	// never miss writes that land between Subscribe and the first receive.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", topic(lobbyID), err)
	}

	out := make(chan models.Change, 32)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ch models.Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				b.log.WithError(err).WithField("topic", msg.Channel).Warn("dropping malformed change payload")
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = ps.Close() }
	return out, cancel, nil
}
