package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/isdelr/parley-be/internal/auth"
	"github.com/isdelr/parley-be/internal/services"
	ws "github.com/isdelr/parley-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades HTTP connections and bridges them to the hub.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. The route sits behind the
// auth middleware, but admission re-validates the token itself: the hub, not
// the router, is the gate.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client, err := h.hub.Admit(token, conn)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket admission rejected")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
		conn.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Remove(client)
	}()
}

// handleIncomingWSMessage processes frames received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		client.TrySend(ws.NewErrorMessage("Malformed message"))
		return
	}

	switch msg.Action {
	case ws.ActionSendMessage:
		payload, ok := msg.Payload.(map[string]interface{})
		if !ok {
			client.TrySend(ws.NewErrorMessage("Invalid payload for send_message"))
			return
		}
		content, _ := payload["content"].(string)
		h.send(client, content)

	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.TrySend(ws.NewErrorMessage("Unknown action: " + msg.Action))
	}
}

// send pushes the content through the hub and reports failures back to the
// sender so a message is never dropped silently.
func (h *WebSocketHandler) send(client *ws.Client, content string) {
	err := h.hub.Send(client, content)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, services.ErrEmptyContent):
		client.TrySend(ws.NewErrorMessage("Message cannot be empty"))
	case errors.Is(err, auth.ErrUnauthenticated):
		client.TrySend(ws.NewErrorMessage("Session expired, please log in again"))
		h.hub.Remove(client)
	case errors.Is(err, services.ErrPersistenceUnavailable):
		log.Error().Err(err).Str("user_id", client.User.ID).Msg("Message could not be persisted")
		client.TrySend(ws.NewErrorMessage("Message could not be saved, please retry"))
	default:
		log.Error().Err(err).Str("user_id", client.User.ID).Msg("Send failed")
		client.TrySend(ws.NewErrorMessage("Message could not be delivered"))
	}
}
