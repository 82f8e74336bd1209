// internal/ws/handler.go
//
// HTTP upgrade endpoint. Each accepted connection gets a fresh connection
// id and its two pumps; identity is not established here — the client
// sends it with find_match.

package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/blockduel/go-server/internal/match"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the game origin; CORS for the REST
	// surface is enforced separately.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns the websocket upgrade handler wired to hub and mgr.
func Handler(hub *Hub, mgr *match.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade")
			return
		}
		c := newClient(uuid.NewString(), hub, mgr, conn)
		hub.register(c)
		log.Info().Str("conn", c.ID).Msg("connected")

		go c.writePump()
		go c.readPump()
	}
}
