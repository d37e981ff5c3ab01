// Package protocol defines the normalized view of a backend chat reply and
// the classifier that produces it from whatever the wire actually returned.
package protocol

import "encoding/json"

// Status is the terminal disposition of a classified reply.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// PlaceholderValue stands in for provider/model fields the backend omitted.
const PlaceholderValue = "N/A"

// TokenUsage mirrors the backend's token accounting block.
type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Total      int `json:"total_tokens"`
}

// Metadata carries the provider/model/token accounting present on every
// reply, success or failure.
type Metadata struct {
	Provider   string
	Model      string
	TokenUsage *TokenUsage
}

// Envelope is the normalized representation of a backend reply. It tolerates
// any combination of answer and sql, including both or neither; a reply with
// neither is flagged UnknownShape and keeps the raw body for verbatim display.
type Envelope struct {
	Status       Status
	Answer       string
	SQL          string
	Err          string
	Metadata     Metadata
	UnknownShape bool
	Raw          json.RawMessage
}

// OutcomeKind tags the result of a single transport call.
type OutcomeKind int

const (
	// OutcomeSuccess is a 2xx reply; Body holds the raw response body.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeHTTPError is a non-2xx reply; Body may be nil.
	OutcomeHTTPError
	// OutcomeNetworkFailure means no response was received at all.
	OutcomeNetworkFailure
)

// Outcome is what the transport layer hands to the classifier: exactly one
// of success, HTTP error, or network failure.
type Outcome struct {
	Kind       OutcomeKind
	Body       []byte
	StatusCode int
	StatusText string
	Failure    string
}

// SuccessOutcome wraps a 2xx response body.
func SuccessOutcome(body []byte) Outcome {
	return Outcome{Kind: OutcomeSuccess, Body: body}
}

// HTTPErrorOutcome wraps a non-2xx response.
func HTTPErrorOutcome(statusCode int, statusText string, body []byte) Outcome {
	return Outcome{Kind: OutcomeHTTPError, StatusCode: statusCode, StatusText: statusText, Body: body}
}

// NetworkFailureOutcome wraps a connection-level failure.
func NetworkFailureOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeNetworkFailure, Failure: message}
}
