package chat

// Request is the payload of POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// MaxMessageChars is the hard limit on a single user message. The client
// rejects longer drafts before sending; the server enforces it again.
const MaxMessageChars = 2000

// TokenUsage aggregates token accounting across the calls of one exchange.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usage blocks.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}
