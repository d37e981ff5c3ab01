package protocol

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Providers reported when the failure happened before a body could be read.
const (
	originClient = "client"
	originServer = "server"
)

// Classify normalizes a transport outcome into an Envelope. It never panics
// and never returns an inconsistent envelope: every possible input maps to
// exactly one of error / known-shape / unknown-shape.
func Classify(outcome Outcome) Envelope {
	switch outcome.Kind {
	case OutcomeNetworkFailure:
		message := outcome.Failure
		if message == "" {
			message = "Network failure"
		}
		return Envelope{
			Status:   StatusError,
			Err:      message,
			Metadata: Metadata{Provider: originClient, Model: PlaceholderValue},
		}
	case OutcomeHTTPError:
		reason := outcome.StatusText
		if reason == "" {
			reason = http.StatusText(outcome.StatusCode)
		}
		return Envelope{
			Status:   StatusError,
			Err:      fmt.Sprintf("HTTP %d: %s", outcome.StatusCode, reason),
			Metadata: Metadata{Provider: originServer, Model: PlaceholderValue},
		}
	}

	var body map[string]any
	if err := json.Unmarshal(outcome.Body, &body); err != nil || body == nil {
		// Well-formed JSON that is not an object (array, bare literal) is an
		// unexpected shape, not a protocol fault.
		var probe any
		if probeErr := json.Unmarshal(outcome.Body, &probe); probeErr == nil && probe != nil {
			return Envelope{
				Status:       StatusOK,
				UnknownShape: true,
				Raw:          append(json.RawMessage(nil), outcome.Body...),
				Metadata:     Metadata{Provider: PlaceholderValue, Model: PlaceholderValue},
			}
		}
		return Envelope{
			Status:   StatusError,
			Err:      "Malformed response",
			Metadata: Metadata{Provider: PlaceholderValue, Model: PlaceholderValue},
		}
	}

	meta := Metadata{
		Provider:   stringField(body, "provider"),
		Model:      stringField(body, "model"),
		TokenUsage: tokenUsageField(body),
	}
	if meta.Provider == "" {
		meta.Provider = PlaceholderValue
	}
	if meta.Model == "" {
		meta.Model = PlaceholderValue
	}

	if errText, ok := errorField(body); ok {
		return Envelope{Status: StatusError, Err: errText, Metadata: meta}
	}

	env := Envelope{
		Status:   StatusOK,
		Answer:   stringField(body, "answer"),
		SQL:      stringField(body, "sql"),
		Metadata: meta,
	}
	if strings.TrimSpace(env.Answer) == "" && strings.TrimSpace(env.SQL) == "" {
		env.Answer = ""
		env.SQL = ""
		env.UnknownShape = true
		env.Raw = append(json.RawMessage(nil), outcome.Body...)
	}
	return env
}

// errorField reports whether the body declares itself an error, either via
// an "error" field or a status of "error".
func errorField(body map[string]any) (string, bool) {
	if raw, ok := body["error"]; ok {
		if text, ok := raw.(string); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
		return "Unknown error occurred", true
	}
	if status, ok := body["status"].(string); ok && status == string(StatusError) {
		return "Unknown error occurred", true
	}
	return "", false
}

// stringField returns the first string value whose key matches name
// case-insensitively. An exact-case match wins over a folded one.
func stringField(body map[string]any, name string) string {
	if value, ok := body[name].(string); ok {
		return value
	}
	for key, raw := range body {
		if strings.EqualFold(key, name) {
			if value, ok := raw.(string); ok {
				return value
			}
		}
	}
	return ""
}

func tokenUsageField(body map[string]any) *TokenUsage {
	raw, ok := body["token_usage"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var usage TokenUsage
	if err := json.Unmarshal(encoded, &usage); err != nil {
		return nil
	}
	return &usage
}
