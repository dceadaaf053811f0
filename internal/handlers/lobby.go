// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"math/rand"
	"net/http"

	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/models"
)

// teams is the cosmetic pool joiners are assigned from.
var teams = []string{"Red", "Blue", "Green", "Purple"}

// generateJoinCode creates a random 6-character join code.
func generateJoinCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Exclude ambiguous chars
	code := make([]byte, 6)
	for i := range code {
		code[i] = chars[rand.Intn(len(chars))]
	}
	return string(code)
}

type createLobbyRequest struct {
	Mode        models.GameMode `json:"mode"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	DisplayName string          `json:"display_name"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
}

type joinLobbyRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Team        string `json:"team,omitempty"`
}

type lobbyResponse struct {
	Lobby       *models.Lobby       `json:"lobby"`
	Participant *models.Participant `json:"participant"`
}

// CreateLobbyHandler creates a lobby and enrolls the creator as its first
// participant and initial host.
func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}
	if !models.ValidMode(req.Mode) {
		http.Error(w, "invalid game mode", http.StatusBadRequest)
		return
	}

	identity, err := EnsureGuest(w, r, req.DisplayName)
	if err != nil {
		http.Error(w, "failed to establish identity", http.StatusInternalServerError)
		return
	}
	userID, err := uuid.Parse(identity.UserID)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusBadRequest)
		return
	}

	now := s.Clock.Now()
	leaseUntil := now.Add(s.LeaseTTL)
	lob := &models.Lobby{
		ID:             uuid.New(),
		Code:           generateJoinCode(),
		HostID:         userID,
		Mode:           req.Mode,
		Status:         models.StatusWaiting,
		Settings:       req.Settings,
		HostLeaseUntil: &leaseUntil,
	}
	if req.Mode == models.ModeBossArena {
		lob.SharedResource = models.DefaultBossHP
	}

	if err := s.Store.CreateLobby(r.Context(), lob); err != nil {
		s.Log.WithError(err).Warn("lobby create failed")
		http.Error(w, "failed to create lobby", http.StatusInternalServerError)
		return
	}

	participant, err := s.Store.JoinLobby(r.Context(), &models.Participant{
		ID:          uuid.New(),
		LobbyID:     lob.ID,
		UserID:      userID,
		DisplayName: identity.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		s.Log.WithError(err).WithField("lobby", lob.ID).Warn("host enrollment failed")
		http.Error(w, "failed to join created lobby", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lobbyResponse{Lobby: lob, Participant: participant})
}

// JoinLobbyHandler resolves a join code and enrolls the caller. Joining twice
// is a no-op that returns the existing participant row.
func (s *Server) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req joinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad join request payload", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "missing join code", http.StatusBadRequest)
		return
	}

	identity, err := EnsureGuest(w, r, req.DisplayName)
	if err != nil {
		http.Error(w, "failed to establish identity", http.StatusInternalServerError)
		return
	}
	userID, err := uuid.Parse(identity.UserID)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusBadRequest)
		return
	}

	lob, err := s.Store.GetLobbyByCode(r.Context(), req.Code)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}

	if req.Team == "" {
		req.Team = teams[rand.Intn(len(teams))]
	}

	participant, err := s.Store.JoinLobby(r.Context(), &models.Participant{
		ID:          uuid.New(),
		LobbyID:     lob.ID,
		UserID:      userID,
		DisplayName: identity.DisplayName,
		AvatarURL:   req.AvatarURL,
		Team:        req.Team,
	})
	if err != nil {
		s.Log.WithError(err).WithField("lobby", lob.ID).Warn("lobby join failed")
		http.Error(w, "failed to join lobby", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lobbyResponse{Lobby: lob, Participant: participant})
}

// ListLobbiesHandler returns every lobby that has not ended.
func (s *Server) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.Store.ListOpenLobbies(r.Context())
	if err != nil {
		s.Log.WithError(err).Warn("lobby list failed")
		http.Error(w, "failed to list lobbies", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lobbies)
}
