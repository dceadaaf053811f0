// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game handlers. Identity and
// membership failures are rejected before the upgrade with plain HTTP
// statuses, so only post-accept conditions need a code here.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
)
