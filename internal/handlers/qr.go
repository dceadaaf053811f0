// internal/handlers/qr.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// LobbyQRHandler renders a PNG QR code encoding the lobby's join link, for
// sharing a lobby to phones in the room.
func (s *Server) LobbyQRHandler(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid lobby id", http.StatusBadRequest)
		return
	}

	lob, err := s.Store.GetLobby(r.Context(), lobbyID)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + "/join?code=" + lob.Code

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		s.Log.WithError(err).WithField("lobby", lob.ID).Warn("qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
