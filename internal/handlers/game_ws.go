// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/auth"
	"github.com/lexprep/arena/internal/engine"
	"github.com/lexprep/arena/internal/middleware"
	"github.com/lexprep/arena/internal/models"
)

// clientMessage is one inbound frame from the player.
type clientMessage struct {
	Type       string `json:"type"`
	OptionID   string `json:"option_id,omitempty"`
	DoubleDown bool   `json:"double_down,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// GameWSHandler upgrades the connection and runs the participant's session
// reactor against it. Identity and membership are checked before the upgrade
// so failures surface as plain HTTP statuses.
func (s *Server) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := uuid.Parse(r.PathValue("lobbyID"))
	if err != nil {
		http.Error(w, "invalid lobby id", http.StatusBadRequest)
		return
	}

	cookieHeader := r.Header.Get("Cookie")
	if !strings.Contains(cookieHeader, "auth_token=") {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return
	}
	identity, err := auth.AuthenticateJWT(extractCookieToken(cookieHeader, "auth_token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	userID, err := uuid.Parse(identity.UserID)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusBadRequest)
		return
	}

	if _, err := s.Store.GetLobby(r.Context(), lobbyID); err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	participant, err := s.Store.GetParticipantByUser(r.Context(), lobbyID, userID)
	if err != nil {
		http.Error(w, "join the lobby before connecting", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"arena"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != "arena" {
		c.Close(BadSubprotocolError, "client must speak the arena subprotocol")
		return
	}

	middleware.LogWebSocketConnect(s.Log, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := engine.NewSession(engine.SessionConfig{
		LobbyID:        lobbyID,
		Participant:    participant,
		State:          s.Store,
		Questions:      s.Store,
		Bus:            s.Bus,
		Clock:          s.Clock,
		RoundClock:     s.RoundClock,
		LeaseTTL:       s.LeaseTTL,
		LeaseHeartbeat: s.LeaseHeartbeat,
		Rand:           s.Rand,
		Log:            s.Log,
	})

	go func() {
		defer cancel()
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Log.WithError(err).WithField("lobby", lobbyID).Warn("session reactor stopped")
		}
	}()

	go s.writePump(ctx, c, session)

	err = s.readPump(ctx, c, session)
	middleware.LogWebSocketDisconnect(s.Log, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "session over")
}

// readPump decodes inbound frames and dispatches them to the session. It
// blocks until the connection closes or the client leaves.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, session *engine.Session) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.writeError(ctx, c, "invalid JSON format")
			continue
		}

		switch m.Type {
		case "answer":
			if err := session.SubmitAnswer(ctx, m.OptionID, m.DoubleDown); err != nil {
				s.writeError(ctx, c, err.Error())
			}
		case "use_powerup":
			if err := session.UsePowerUp(ctx, models.PowerUpKind(m.Kind)); err != nil {
				s.writeError(ctx, c, err.Error())
			}
		case "start_round":
			if err := session.StartRound(ctx); err != nil {
				s.writeError(ctx, c, err.Error())
			}
		case "end_lobby":
			if err := session.EndLobby(ctx); err != nil {
				s.writeError(ctx, c, err.Error())
			}
		case "leave":
			// Leaving is just closing: the session holds no exclusive resource.
			return nil
		default:
			s.writeError(ctx, c, "unknown message type: "+m.Type)
		}
	}
}

// writePump drains session events to the socket and keeps the connection
// alive with periodic pings.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, session *engine.Session) {
	ticker := time.NewTicker(30 * time.Second) // Send pings periodically
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-session.Events():
			data, err := json.Marshal(ev)
			if err != nil {
				s.Log.Warnf("failed to marshal outgoing event: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) writeError(ctx context.Context, c *websocket.Conn, message string) {
	data, _ := json.Marshal(engine.Event{"type": "error", "message": message})
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		s.Log.Warnf("failed to write error frame: %v", err)
	}
}
