// Package docsync defines the shared-document surface exchanged over peer
// data channels: latest-write-wins content and cursor positions, framed with
// msgpack.
package docsync

import "github.com/vmihailenco/msgpack/v5"

// Data channel message kinds.
const (
	// KindContentSync carries the full current document content.
	KindContentSync = "contentSync"

	// KindCursor carries one participant's cursor position.
	KindCursor = "cursor"
)

// Message frames every data channel payload.
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// ContentPayload is the body of a contentSync message.
type ContentPayload struct {
	Content string `msgpack:"content"`
}

// CursorPayload is the body of a cursor message.
type CursorPayload struct {
	ClientId string `msgpack:"clientId"`
	Row      int    `msgpack:"row"`
	Col      int    `msgpack:"col"`
}

// NewMessage creates a Message with the given type and payload.
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: b}, nil
}

// DecodePayload decodes the message payload into the provided struct.
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// Encode serializes the message for the wire.
func (m Message) Encode() ([]byte, error) {
	return msgpack.Marshal(m)
}

// Decode parses one data channel frame.
func Decode(b []byte) (Message, error) {
	var m Message
	err := msgpack.Unmarshal(b, &m)
	return m, err
}
