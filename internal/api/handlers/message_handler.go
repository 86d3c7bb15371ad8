package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/isdelr/parley-be/internal/models"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/rs/zerolog/log"
)

// MessageHandler serves message history for the initial page load.
type MessageHandler struct {
	messages     services.MessageServiceProvider
	defaultLimit int
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages services.MessageServiceProvider, defaultLimit int) *MessageHandler {
	return &MessageHandler{messages: messages, defaultLimit: defaultLimit}
}

// GetRecent returns the most recent messages, oldest first.
func (h *MessageHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	messages, err := h.messages.Recent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load recent messages")
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
