package websocket

import (
	"encoding/json"

	"github.com/isdelr/parley-be/internal/models"
)

// Message defines the structure for websocket frames in both directions.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions carried on the wire.
const (
	ActionSendMessage = "send_message" // inbound, payload: {content}
	ActionChatMessage = "chat.message" // outbound
	ActionUserJoined  = "user.joined"  // outbound
	ActionUserLeft    = "user.left"    // outbound
	ActionError       = "error"        // outbound
)

// SendPayload is the inbound payload for ActionSendMessage.
type SendPayload struct {
	Content string `json:"content"`
}

type authorPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type chatPayload struct {
	ID        string        `json:"id"`
	Author    authorPayload `json:"author"`
	Content   string        `json:"content"`
	Timestamp int64         `json:"timestamp"` // unix milliseconds
}

// NewChatEvent encodes one stored message for fan-out.
func NewChatEvent(msg models.Message) []byte {
	return encode(Message{
		Action: ActionChatMessage,
		Payload: chatPayload{
			ID:        msg.ID,
			Author:    authorPayload{ID: msg.AuthorID, Username: msg.AuthorName},
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.UnixMilli(),
		},
	})
}

// NewPresenceEvent encodes a connect/disconnect notice.
func NewPresenceEvent(action string, user models.User) []byte {
	return encode(Message{
		Action:  action,
		Payload: authorPayload{ID: user.ID, Username: user.DisplayName()},
	})
}

// NewErrorMessage encodes an error notice for one client.
func NewErrorMessage(text string) []byte {
	return encode(Message{
		Action:  ActionError,
		Payload: map[string]string{"message": text},
	})
}

func encode(m Message) []byte {
	// The payload types above cannot fail to marshal.
	b, _ := json.Marshal(m)
	return b
}
