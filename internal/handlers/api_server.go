// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/lexprep/arena/internal/bus"
	"github.com/lexprep/arena/internal/database"
	"github.com/lexprep/arena/internal/engine"
	"github.com/lexprep/arena/internal/middleware"
)

// Server holds the shared dependencies every handler needs.
type Server struct {
	Store *database.Store
	Bus   *bus.Bus
	Log   *logrus.Logger

	Clock      clockwork.Clock
	RoundClock engine.RoundClock

	LeaseTTL       time.Duration
	LeaseHeartbeat time.Duration

	Rand engine.Rand
}

// Routes mounts every HTTP and WebSocket endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /lobby/create", s.CreateLobbyHandler)
	mux.HandleFunc("POST /lobby/join", s.JoinLobbyHandler)
	mux.HandleFunc("GET /lobby/list", s.ListLobbiesHandler)
	mux.HandleFunc("GET /lobby/{id}/qr", s.LobbyQRHandler)
	mux.HandleFunc("GET /game/ws/{lobbyID}", s.GameWSHandler)

	return middleware.LogMiddleware(s.Log)(mux)
}
