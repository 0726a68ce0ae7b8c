// Package signaling maintains the client's websocket connection to the hub
// and splits incoming envelopes into streams the session can consume.
package signaling

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Conn is the persistent signaling connection to the hub.
type Conn struct {
	conn     *websocket.Conn
	incoming chan *protocol.Envelope
	outgoing chan *protocol.Envelope
	done     chan struct{}
	closed   bool

	log zerolog.Logger
}

// Dial connects to the hub at serverURL and starts the read/write pumps.
func Dial(serverURL string) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Conn{
		conn:     ws,
		incoming: make(chan *protocol.Envelope, 32),
		outgoing: make(chan *protocol.Envelope, 32),
		done:     make(chan struct{}),
		log:      logging.Component("signaling"),
	}

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return c, nil
}

func (c *Conn) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.log.Warn().Err(err).Msg("malformed frame dropped")
			continue
		}
		if !env.Type.Known() {
			c.log.Warn().Str("type", string(env.Type)).Msg("unknown message type dropped")
			continue
		}

		c.incoming <- &env
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for delivery to the hub. Best effort: when the
// connection is going away the envelope is dropped, and a lost signaling
// message is recovered by the next membership snapshot.
func (c *Conn) Send(env *protocol.Envelope) {
	select {
	case c.outgoing <- env:
	case <-c.done:
	}
}

// JoinRoom registers this client in a room. An empty room selects the legacy
// global room.
func (c *Conn) JoinRoom(clientID, room string) {
	typ := protocol.TypeJoinRoom
	if room == "" {
		typ = protocol.TypeNewClient
	}
	c.Send(&protocol.Envelope{Type: typ, ClientId: clientID, RoomId: room})
}

// RequestClients asks the hub for the current membership snapshot.
func (c *Conn) RequestClients(room string) {
	c.Send(&protocol.Envelope{Type: protocol.TypeGetClients, RoomId: room})
}

// Incoming returns the stream of decoded envelopes. Closed when the
// connection drops.
func (c *Conn) Incoming() <-chan *protocol.Envelope {
	return c.incoming
}

// Close shuts the connection down.
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
