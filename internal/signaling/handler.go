package signaling

import (
	"github.com/artofey/livecoding/internal/protocol"
)

// Handler routes incoming envelopes to typed channels: membership snapshots
// on one, routed negotiation messages on the other.
type Handler struct {
	conn   *Conn
	closed bool

	Snapshots chan []string
	Signals   chan *protocol.Envelope
}

// NewHandler creates a handler for a signaling connection.
func NewHandler(conn *Conn) *Handler {
	return &Handler{
		conn:      conn,
		Snapshots: make(chan []string, 8),
		Signals:   make(chan *protocol.Envelope, 32),
	}
}

// Start consumes the connection until it drops, then closes both output
// channels so the session loop can unwind.
func (h *Handler) Start() {
	defer h.Close()

	for env := range h.conn.Incoming() {
		switch env.Type {
		case protocol.TypeClients:
			// Snapshots replace each other wholesale; a nil list is
			// still a valid (empty) membership.
			h.Snapshots <- env.Clients

		case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeCandidate:
			h.Signals <- env

		default:
			// Registration acks and anything else carry no
			// client-side behavior.
		}
	}
}

// Close closes the output channels. Safe to call once after Start returns.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.Snapshots)
	close(h.Signals)
}
