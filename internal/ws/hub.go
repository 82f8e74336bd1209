// internal/ws/hub.go
//
// Connection registry for the realtime channel. The hub tracks every live
// client by connection id and implements match.Notifier so the match
// manager can address a single peer without knowing about websockets.

package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub registers clients and routes outbound events to them.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// unregister drops the client and closes its send channel. Closing under
// the hub lock means Emit can never write to a closed channel.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
		close(c.send)
	}
}

// Count reports the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Emit marshals payload into an Envelope and queues it for one connection.
// Unknown connections are dropped silently (the peer already left); a full
// send buffer drops the message rather than blocking the caller.
func (h *Hub) Emit(connID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal payload")
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal envelope")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Warn().Str("conn", connID).Str("event", event).Msg("send buffer full, dropping")
	}
}
