package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/parley-be/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound buffer per client. A client that falls this far behind is
	// treated as dead.
	sendBufferSize = 256
)

// Client is one admitted connection: the bridge between a websocket peer and
// the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// User is the identity the connection was admitted with.
	User models.User

	// Token is the session token; the hub re-validates it on every send.
	Token string

	// Send is the buffered channel of outbound frames.
	Send chan []byte

	// done is closed by the hub when it drops this client. Send itself is
	// never closed: handler goroutines queue frames concurrently with the
	// hub, and a close would race those sends.
	done chan struct{}

	registered chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, user models.User, token string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		User:       user,
		Token:      token,
		Send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		registered: make(chan struct{}),
	}
}

// TrySend queues one outbound frame without blocking. It reports false when
// the client has been dropped or its buffer is full; either way the frame is
// discarded rather than stalling the caller.
func (c *Client) TrySend(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- message:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// ReadPump reads frames from the peer and hands them to handler. It runs in a
// dedicated goroutine per connection and exits when the peer goes away.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", c.User.ID).Msg("Unexpected websocket close")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump pushes frames from the Send channel to the peer and keeps the
// connection alive with pings. It runs in a dedicated goroutine per
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// The hub dropped this client.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
