// Package llm abstracts the chat-completion providers the backend can use to
// translate natural language into SQL.
package llm

import (
	"context"

	"github.com/sqlchat/sqlchat/internal/model/chat"
)

// Conversation roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of provider-agnostic conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a single model reply with its accounting.
type Completion struct {
	Content string
	Model   string
	Usage   chat.TokenUsage
}

// Client completes a conversation with a language model.
type Client interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
	Provider() string
	Model() string
}
