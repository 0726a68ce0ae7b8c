package protocol

import "encoding/json"

// MessageType tags each envelope variant.
type MessageType string

// Client -> hub registration and queries.
const (
	// TypeNewClient registers a connection without a room (legacy global room).
	TypeNewClient MessageType = "newClient"

	// TypeCreateRoom and TypeJoinRoom register a connection into a room.
	// The hub treats them identically; the distinction only matters to UIs.
	TypeCreateRoom MessageType = "createRoom"
	TypeJoinRoom   MessageType = "joinRoom"

	// TypeGetClients asks the hub for the current membership of a room.
	TypeGetClients MessageType = "getClients"
)

// Hub -> client.
const (
	// TypeClients carries a wholesale membership snapshot. Snapshots replace
	// each other; they are never merged incrementally.
	TypeClients MessageType = "clients"
)

// Routed negotiation messages. The hub forwards these by ClientId without
// inspecting the payload.
const (
	TypeOffer     MessageType = "offer"
	TypeAnswer    MessageType = "answer"
	TypeCandidate MessageType = "candidate"
)

// Envelope is the wire format for every signaling frame: one JSON object per
// websocket text frame. Fields other than Type are populated according to the
// variant. Envelopes are never mutated in place; the hub builds a copy when it
// stamps SenderId.
//
// SenderId is always stamped by the hub on routed messages. A value supplied
// by the originating client is discarded, so routing cannot be spoofed.
type Envelope struct {
	Type      MessageType     `json:"type"`
	ClientId  string          `json:"clientId,omitempty"`
	SenderId  string          `json:"senderId,omitempty"`
	RoomId    string          `json:"roomId,omitempty"`
	Clients   []string        `json:"clients,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Known reports whether t is one of the defined variants. Unknown types are
// logged and dropped by consumers, never fatal to the connection.
func (t MessageType) Known() bool {
	switch t {
	case TypeNewClient, TypeCreateRoom, TypeJoinRoom, TypeGetClients,
		TypeClients, TypeOffer, TypeAnswer, TypeCandidate:
		return true
	}
	return false
}

// Routed reports whether envelopes of this type are forwarded peer to peer
// by the hub.
func (t MessageType) Routed() bool {
	return t == TypeOffer || t == TypeAnswer || t == TypeCandidate
}

// Registration reports whether this type registers (or re-registers) the
// sending connection with the hub.
func (t MessageType) Registration() bool {
	return t == TypeNewClient || t == TypeCreateRoom || t == TypeJoinRoom
}

// Snapshot builds a clients envelope carrying a membership snapshot.
func Snapshot(ids []string) *Envelope {
	return &Envelope{Type: TypeClients, Clients: ids}
}
