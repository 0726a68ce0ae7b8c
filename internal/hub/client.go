package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/artofey/livecoding/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB covers SDP payloads.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection known to the hub.
//
// ID and Room are zero until the connection registers with a newClient,
// createRoom or joinRoom message; afterwards they are guarded by the hub's
// registry lock, like every other registry read and write.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// send is the buffered outbound queue drained by WritePump. The hub
	// never writes to the socket directly, so a slow connection cannot
	// stall the registry.
	send chan *protocol.Envelope

	// done is closed exactly once when the hub drops this connection.
	done     chan struct{}
	closeOne sync.Once

	ID   string
	Room string
}

// NewClient wires a freshly upgraded connection to the hub.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan *protocol.Envelope, 256),
		done: make(chan struct{}),
	}
}

func (c *Client) close() {
	c.closeOne.Do(func() { close(c.done) })
}

// enqueue hands an envelope to the write pump without blocking the caller.
// A full buffer drops the frame: the connection's own pump failure path is
// the cleanup mechanism, the hub does not time out writes.
func (c *Client) enqueue(env *protocol.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// ReadPump pumps frames from the websocket connection into the hub.
//
// There is at most one reader per connection; all registry mutations for
// this connection originate here or in the deferred disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Msg("read error")
			}
			return
		}

		// A malformed frame terminates processing of that frame only.
		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.hub.log.Warn().Err(err).Msg("malformed frame dropped")
			continue
		}

		c.hub.Handle(c, &env)
	}
}

// WritePump pumps envelopes from the send queue to the websocket connection
// and keeps the connection alive with periodic pings. At most one writer per
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
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
