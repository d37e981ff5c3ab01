package chat

// Status values reported in a chat reply.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// SQLPlaceholder is reported when the model answered without generating SQL.
const SQLPlaceholder = "N/A"

// ResponseDetails is the reply body of POST /api/chat. Field names match the
// historical wire contract (capitalized SQL/Answer included); clients must
// tolerate any subset being present.
type ResponseDetails struct {
	SessionID  string      `json:"session_id"`
	Provider   string      `json:"provider"`
	Status     string      `json:"status"`
	Model      string      `json:"model,omitempty"`
	LatencyMS  int64       `json:"latency_ms,omitempty"`
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
	SQL        string      `json:"SQL,omitempty"`
	Answer     string      `json:"Answer,omitempty"`
}
