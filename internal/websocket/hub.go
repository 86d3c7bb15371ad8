package websocket

import (
	"errors"

	"github.com/gorilla/websocket"
	"github.com/isdelr/parley-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrChannelClosed is returned for operations against a stopped hub.
var ErrChannelClosed = errors.New("broadcast channel closed")

// IdentityChecker resolves a session token to its user. Admission and every
// send go through it, so a logout takes effect mid-connection.
type IdentityChecker interface {
	CurrentIdentity(token string) (models.User, error)
}

// MessageStore durably appends chat messages. A message is only fanned out
// after the store confirms the write.
type MessageStore interface {
	Append(authorID, content string) (models.Message, error)
}

// sendRequest carries one message through the hub's ordering point.
type sendRequest struct {
	client  *Client
	content string
	result  chan error
}

// Hub maintains the live set of admitted connections and fans every accepted
// message out to all of them. All mutation of the live set and all message
// acceptance happen on the single Run goroutine, which is what gives sends
// one total order and keeps admission and removal out of a fan-out in
// progress.
type Hub struct {
	identity IdentityChecker
	store    MessageStore

	// Registered clients.
	clients map[*Client]bool

	// Register requests from admitted clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Inbound send requests awaiting ordering, persistence, and fan-out.
	sends chan sendRequest

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub(identity IdentityChecker, store MessageStore) *Hub {
	return &Hub{
		identity:   identity,
		store:      store,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sends:      make(chan sendRequest),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			close(client.registered)
			log.Info().Str("user_id", client.User.ID).Int("total_clients", len(h.clients)).Msg("Client connected")
			h.fanOut(NewPresenceEvent(ActionUserJoined, client.User))
		case client := <-h.unregister:
			h.drop(client)
		case req := <-h.sends:
			req.result <- h.accept(req)
		case <-h.done:
			return
		}
	}
}

// Stop halts the processing loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Admit validates the session and registers a connection. No state is created
// for a token that does not resolve to an identity. Admit returns once the
// connection is in the live set, so it observes every send accepted after the
// call.
func (h *Hub) Admit(token string, conn *websocket.Conn) (*Client, error) {
	user, err := h.identity.CurrentIdentity(token)
	if err != nil {
		return nil, err
	}
	client := newClient(h, conn, user, token)
	select {
	case h.register <- client:
	case <-h.done:
		return nil, ErrChannelClosed
	}
	select {
	case <-client.registered:
		return client, nil
	case <-h.done:
		return nil, ErrChannelClosed
	}
}

// Send pushes one message through the ordering point and waits for the
// verdict. On success the message has been durably stored and handed to every
// live connection, including the sender's.
func (h *Hub) Send(client *Client, content string) error {
	req := sendRequest{client: client, content: content, result: make(chan error, 1)}
	select {
	case h.sends <- req:
		return <-req.result
	case <-h.done:
		return ErrChannelClosed
	}
}

// Remove takes a connection out of the live set. Removing a connection that
// is already gone is a no-op.
func (h *Hub) Remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// accept runs on the Run goroutine: it is the single point that fixes the
// order of sends. The identity is re-checked because a session can be revoked
// while its connection is still open, and the append must commit before any
// delivery so readers of the log never trail a broadcast they observed.
func (h *Hub) accept(req sendRequest) error {
	user, err := h.identity.CurrentIdentity(req.client.Token)
	if err != nil {
		return err
	}

	msg, err := h.store.Append(user.ID, req.content)
	if err != nil {
		return err
	}

	h.fanOut(NewChatEvent(msg))
	return nil
}

// fanOut hands an encoded event to every live connection. A connection whose
// buffer is full is treated as dead and dropped; its failure never reaches
// the sender or the other connections.
func (h *Hub) fanOut(message []byte) {
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.done)
		log.Info().Str("user_id", client.User.ID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
		h.fanOut(NewPresenceEvent(ActionUserLeft, client.User))
	}
}
