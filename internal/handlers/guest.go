// internal/handlers/guest.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/auth"
)

// EnsureGuest returns the identity carried by the auth_token cookie, minting a
// fresh guest identity (and setting the cookie) when the token is missing or
// invalid. Guests are ephemeral: the token and their participant rows are the
// only record of them.
func EnsureGuest(w http.ResponseWriter, r *http.Request, displayName string) (auth.Identity, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, "auth_token=") {
		token := extractCookieToken(cookieHeader, "auth_token")
		if id, err := auth.AuthenticateJWT(token); err == nil {
			return id, nil
		}
		// fall through and mint a new guest
	}

	if displayName == "" {
		displayName = "Guest"
	}
	id := auth.Identity{
		UserID:      uuid.New().String(),
		DisplayName: displayName,
	}
	token, err := auth.CreateJWT(id)
	if err != nil {
		return auth.Identity{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}
