package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sqlchat/sqlchat/internal/dataset"
	"github.com/sqlchat/sqlchat/internal/llm"
	"github.com/sqlchat/sqlchat/internal/model/chat"
	"github.com/sqlchat/sqlchat/internal/service/chatbot"
)

type scriptedClient struct {
	replies []llm.Completion
	calls   int
}

func (c *scriptedClient) Complete(context.Context, []llm.Message) (llm.Completion, error) {
	reply := c.replies[c.calls]
	c.calls++
	return reply, nil
}

func (c *scriptedClient) Provider() string { return "openai" }
func (c *scriptedClient) Model() string    { return "gpt-4o-mini" }

func setupRouter(t *testing.T, bot *chatbot.Service) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	New(bot).RegisterRoutes(r)
	return r
}

func setupBot(t *testing.T, client llm.Client) *chatbot.Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.sqlite")
	db, err := dataset.Open(context.Background(), "test", dataset.DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	script := `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
INSERT INTO users (name) VALUES ('Alice');`
	if err := db.ExecScript(context.Background(), script); err != nil {
		t.Fatalf("ExecScript err: %v", err)
	}
	bot, err := chatbot.New(context.Background(), client, db, nil, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("chatbot.New err: %v", err)
	}
	return bot
}

func postChat(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatHappyPath(t *testing.T) {
	client := &scriptedClient{replies: []llm.Completion{
		{
			Content: `{"SQL": "SELECT COUNT(*) FROM users"}`,
			Model:   "gpt-4o-mini",
			Usage:   chat.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
		},
		{
			Content: `{"Answer": "There is 1 user."}`,
			Model:   "gpt-4o-mini",
			Usage:   chat.TokenUsage{PromptTokens: 120, CompletionTokens: 11, TotalTokens: 131},
		},
	}}
	r := setupRouter(t, setupBot(t, client))

	resp := postChat(r, `{"message": "how many users?"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var details chat.ResponseDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if details.Status != chat.StatusOK {
		t.Fatalf("status = %q", details.Status)
	}
	if details.SQL != "SELECT COUNT(*) FROM users" || details.Answer != "There is 1 user." {
		t.Fatalf("details = %+v", details)
	}
	if details.TokenUsage == nil || details.TokenUsage.TotalTokens != 241 {
		t.Fatalf("token usage = %+v", details.TokenUsage)
	}
	if !strings.HasPrefix(details.SessionID, "session_") {
		t.Fatalf("session id = %q", details.SessionID)
	}
}

func TestChatInvalidJSON(t *testing.T) {
	r := setupRouter(t, nil)
	resp := postChat(r, `{"message": `)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid request body") {
		t.Fatalf("body = %q", resp.Body.String())
	}
}

func TestChatMissingMessage(t *testing.T) {
	r := setupRouter(t, nil)
	resp := postChat(r, `{"text": "hello"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "message") {
		t.Fatalf("body = %q", resp.Body.String())
	}
}

func TestChatMessageTooLong(t *testing.T) {
	r := setupRouter(t, nil)
	long := strings.Repeat("a", chat.MaxMessageChars+1)
	payload, _ := json.Marshal(map[string]string{"message": long})
	resp := postChat(r, string(payload))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatServiceUnavailable(t *testing.T) {
	r := setupRouter(t, nil)
	resp := postChat(r, `{"message": "hello"}`)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestChatGetNotAllowed(t *testing.T) {
	r := setupRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "error") {
		t.Fatalf("body = %q", resp.Body.String())
	}
}
