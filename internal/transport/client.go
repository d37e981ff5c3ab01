// Package transport issues the single request/response call to the backend
// and reports transport-level outcomes without interpreting the body.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sqlchat/sqlchat/internal/protocol"
)

const chatPath = "/api/chat"

// Request is the wire payload for one chat exchange.
type Request struct {
	Message string `json:"message"`
}

// Client performs exactly one network call per Send. Retries belong to the
// backend policy, not here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the backend at baseURL. A non-positive
// timeout falls back to 60s so a call can never hang indefinitely.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the message and resolves to exactly one outcome: success, HTTP
// error, or network failure. It never returns an error; failures are data.
func (c *Client) Send(ctx context.Context, message string) protocol.Outcome {
	payload, err := json.Marshal(Request{Message: message})
	if err != nil {
		return protocol.NetworkFailureOutcome("encode request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return protocol.NetworkFailureOutcome("build request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return protocol.NetworkFailureOutcome(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.NetworkFailureOutcome("read response: " + err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return protocol.HTTPErrorOutcome(resp.StatusCode, http.StatusText(resp.StatusCode), body)
	}
	return protocol.SuccessOutcome(body)
}
