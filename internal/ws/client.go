// internal/ws/client.go
//
// One websocket connection: read pump dispatching inbound events to the
// match manager, write pump draining the send channel with ping keepalive.
// Standard gorilla two-pump layout; the connection is only ever written
// from the write pump.

package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/blockduel/go-server/internal/match"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8 << 10 // a 9x9 grid snapshot is well under this
	sendBuffer     = 32
)

// Client is one connected player.
type Client struct {
	ID   string
	hub  *Hub
	mgr  *match.Manager
	conn *websocket.Conn
	send chan []byte
}

func newClient(id string, hub *Hub, mgr *match.Manager, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		hub:  hub,
		mgr:  mgr,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// readPump consumes inbound frames until the connection dies, then runs
// disconnect cleanup exactly once.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.mgr.Disconnect(c.ID)
		_ = c.conn.Close()
		log.Info().Str("conn", c.ID).Msg("disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.ID).Msg("read error")
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one envelope and routes it. Malformed frames are
// dropped; the connection stays up.
func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("conn", c.ID).Msg("bad frame")
		return
	}
	switch env.Event {
	case match.EventFindMatch:
		var p match.FindMatchPayload
		_ = json.Unmarshal(env.Data, &p)
		c.mgr.Enqueue(c.ID, p.IdentityID)
	case match.EventCancelMatch:
		c.mgr.Cancel(c.ID)
	case match.EventPlayerMove:
		var p match.MovePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("bad move payload")
			return
		}
		c.mgr.HandleUpdate(c.ID, p)
	case match.EventGameOver:
		var p match.GameOverPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.mgr.HandleGameOver(c.ID, p.SessionID)
	default:
		log.Debug().Str("conn", c.ID).Str("event", env.Event).Msg("unknown event")
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
