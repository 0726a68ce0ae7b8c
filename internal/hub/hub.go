// Package hub implements the signaling hub: the authoritative room/client
// registry, a pure router for negotiation messages, and the membership
// broadcaster.
package hub

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/protocol"
)

// Hub owns the registry of connected clients. The registry is a single
// mutable table guarded by one lock; every lookup, insert, delete and
// snapshot enumeration happens under it. Socket writes never do: broadcasts
// collect recipients under the lock and enqueue outside it.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client

	log zerolog.Logger
}

// New creates an empty hub. One hub exists per process, created at startup
// and mutated only through its operations.
func New() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     logging.Component("hub"),
	}
}

// Handle dispatches one decoded envelope from a connection. Unknown types
// are logged and dropped, never fatal.
func (h *Hub) Handle(c *Client, env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypeNewClient:
		h.Join(c, env.ClientId, "")

	case protocol.TypeCreateRoom, protocol.TypeJoinRoom:
		h.Join(c, env.ClientId, env.RoomId)

	case protocol.TypeGetClients:
		// The requested room id is used as-is; empty names the global room.
		c.enqueue(protocol.Snapshot(h.ListClients(env.RoomId)))

	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeCandidate:
		h.Route(c, env)

	default:
		h.log.Warn().Str("type", string(env.Type)).Msg("unknown message type dropped")
	}
}

// Join registers or replaces the record for a client id and broadcasts the
// new membership snapshot to the room. Replacing a record whose previous
// connection is dead is allowed: last writer wins per id.
func (h *Hub) Join(c *Client, id, room string) {
	if id == "" {
		h.log.Warn().Msg("join without client id dropped")
		return
	}

	h.mu.Lock()
	// A connection re-registering under a new id gives up its old record.
	oldID, oldRoom := c.ID, c.Room
	if oldID != "" && oldID != id {
		if cur, ok := h.clients[oldID]; ok && cur == c {
			delete(h.clients, oldID)
		}
	}
	prev := h.clients[id]
	c.ID = id
	c.Room = room
	h.clients[id] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		h.log.Info().Str("client", id).Msg("replaced stale registration")
	}
	h.log.Info().Str("client", id).Str("room", room).Msg("client joined")

	h.BroadcastRoom(room)
	if oldID != "" && oldRoom != room {
		h.BroadcastRoom(oldRoom)
	}
}

// ListClients returns the current members of a room, including the asking
// client.
func (h *Hub) ListClients(room string) []string {
	h.mu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id, cl := range h.clients {
		if cl.Room == room {
			ids = append(ids, id)
		}
	}
	h.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Route forwards a negotiation envelope to the client named by its ClientId,
// stamping SenderId with the sender's registered id. Misses are logged and
// dropped; signaling is fire-and-forget, a recipient mid-disconnect simply
// misses the message and renegotiates off the next snapshot.
func (h *Hub) Route(sender *Client, env *protocol.Envelope) {
	h.mu.Lock()
	senderID := sender.ID
	target := h.clients[env.ClientId]
	h.mu.Unlock()

	if senderID == "" {
		h.log.Warn().Str("type", string(env.Type)).Msg("routing from unregistered connection dropped")
		return
	}
	if target == nil {
		h.log.Warn().
			Str("type", string(env.Type)).
			Str("target", env.ClientId).
			Msg("routing miss, message dropped")
		return
	}

	// Envelopes are immutable; stamping builds a copy.
	fwd := *env
	fwd.SenderId = senderID

	if !target.enqueue(&fwd) {
		h.log.Warn().Str("target", env.ClientId).Msg("target send queue full, message dropped")
		return
	}
	h.log.Debug().
		Str("type", string(env.Type)).
		Str("from", senderID).
		Str("to", env.ClientId).
		Msg("forwarded")
}

// Disconnect removes the record owned by a closed connection and re-broadcasts
// the membership snapshot for its room. A connection that was replaced by a
// newer registration for the same id leaves the registry untouched.
func (h *Hub) Disconnect(c *Client) {
	c.close()

	h.mu.Lock()
	id, room := c.ID, c.Room
	removed := false
	if id != "" {
		if cur, ok := h.clients[id]; ok && cur == c {
			delete(h.clients, id)
			removed = true
		}
	}
	h.mu.Unlock()

	if !removed {
		return
	}
	h.log.Info().Str("client", id).Str("room", room).Msg("client disconnected")
	h.BroadcastRoom(room)
}

// BroadcastRoom sends the current membership snapshot to every member of a
// room. Recipients are collected under the lock; enqueueing happens outside
// it, and a failure for one member does not abort delivery to the rest.
func (h *Hub) BroadcastRoom(room string) {
	h.mu.Lock()
	var members []*Client
	ids := make([]string, 0, len(h.clients))
	for id, cl := range h.clients {
		if cl.Room == room {
			members = append(members, cl)
			ids = append(ids, id)
		}
	}
	h.mu.Unlock()

	snapshot := append([]string(nil), ids...)
	sort.Strings(snapshot)
	env := protocol.Snapshot(snapshot)

	for i, m := range members {
		if !m.enqueue(env) {
			h.log.Warn().Str("client", ids[i]).Msg("snapshot dropped, send queue unavailable")
		}
	}
}
