// Package chat exposes the conversation endpoint.
package chat

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/sqlchat/sqlchat/internal/model/chat"
	"github.com/sqlchat/sqlchat/internal/observability"
	"github.com/sqlchat/sqlchat/internal/service/chatbot"
)

// Handler serves the chat endpoint.
type Handler struct {
	bot *chatbot.Service
}

// New creates the chat handler. The bot may be nil when no provider is
// configured; requests then get a 503.
func New(bot *chatbot.Service) *Handler {
	return &Handler{bot: bot}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat", h.handleChatWrongMethod)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Message == "" {
		respondError(w, http.StatusBadRequest, `the JSON payload is missing the "message" field`)
		return
	}
	if utf8.RuneCountInString(payload.Message) > chat.MaxMessageChars {
		respondError(w, http.StatusBadRequest, "message exceeds the 2000 character limit")
		return
	}

	if h.bot == nil {
		respondError(w, http.StatusServiceUnavailable, "chat service unavailable")
		return
	}

	started := time.Now()
	details := h.bot.Send(r.Context(), payload.Message)

	prompt, completion := 0, 0
	if details.TokenUsage != nil {
		prompt = details.TokenUsage.PromptTokens
		completion = details.TokenUsage.CompletionTokens
	}
	observability.ObserveChatTurn(details.Status, time.Since(started), prompt, completion)

	respondJSON(w, http.StatusOK, details)
}

func (h *Handler) handleChatWrongMethod(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "use POST to send a chat message")
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
