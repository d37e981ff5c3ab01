package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sqlchat/sqlchat/internal/protocol"
)

func TestSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Message != "show top customers" {
			t.Fatalf("message = %q", req.Message)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SQL":"SELECT 1","provider":"openai"}`))
	}))
	defer srv.Close()

	outcome := NewClient(srv.URL, time.Second).Send(context.Background(), "show top customers")
	if outcome.Kind != protocol.OutcomeSuccess {
		t.Fatalf("kind = %v, want success", outcome.Kind)
	}
	if !strings.Contains(string(outcome.Body), `"SQL"`) {
		t.Fatalf("body = %q", outcome.Body)
	}
}

func TestSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	outcome := NewClient(srv.URL, time.Second).Send(context.Background(), "hello")
	if outcome.Kind != protocol.OutcomeHTTPError {
		t.Fatalf("kind = %v, want http error", outcome.Kind)
	}
	if outcome.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", outcome.StatusCode)
	}
	if outcome.StatusText != "Internal Server Error" {
		t.Fatalf("status text = %q", outcome.StatusText)
	}
}

func TestSendNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse the connection

	outcome := NewClient(srv.URL, time.Second).Send(context.Background(), "hello")
	if outcome.Kind != protocol.OutcomeNetworkFailure {
		t.Fatalf("kind = %v, want network failure", outcome.Kind)
	}
	if outcome.Failure == "" {
		t.Fatal("failure message must not be empty")
	}
}

func TestSendRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// r.Context() when the client gives up; otherwise srv.Close hangs.
		_, _ = io.ReadAll(r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome := NewClient(srv.URL, time.Second).Send(ctx, "hello")
	if outcome.Kind != protocol.OutcomeNetworkFailure {
		t.Fatalf("kind = %v, want network failure", outcome.Kind)
	}
}
