// Package chatbot implements the two-phase conversation flow: the model first
// translates a question into SQL, the query runs against the dataset, and the
// model then turns the output into a natural language answer.
package chatbot

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqlchat/sqlchat/internal/dataset"
	"github.com/sqlchat/sqlchat/internal/llm"
	"github.com/sqlchat/sqlchat/internal/model/chat"
	"github.com/sqlchat/sqlchat/internal/store"
)

//go:embed task_template.md
var taskTemplate string

const schemaPlaceholder = "$db_schema"

// DefaultDelay spaces the two model calls of a turn so the follow-up request
// is not rate limited.
const DefaultDelay = 2500 * time.Millisecond

var fenceRe = regexp.MustCompile("```(json)?")

// Service drives one conversation against one dataset. Turns are serialized:
// a second Send blocks until the first finishes.
type Service struct {
	llm      llm.Client
	data     *dataset.DB
	sessions *store.Store
	delay    time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	sessionID string
	history   []llm.Message
}

// New primes the conversation with the dataset schema and registers the
// session in the conversation store. The store may be nil to disable
// persistence.
func New(ctx context.Context, client llm.Client, data *dataset.DB, sessions *store.Store, delay time.Duration, logger *slog.Logger) (*Service, error) {
	schema, err := data.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract dataset schema: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		llm:       client,
		data:      data,
		sessions:  sessions,
		delay:     delay,
		logger:    logger,
		sessionID: "session_" + uuid.NewString(),
		history: []llm.Message{
			{Role: llm.RoleSystem, Content: strings.ReplaceAll(taskTemplate, schemaPlaceholder, schema)},
		},
	}

	if s.sessions != nil {
		if err := s.sessions.StartSession(s.sessionID); err != nil {
			return nil, fmt.Errorf("register chat session: %w", err)
		}
		s.persistLog()
	}
	return s, nil
}

// SessionID returns the identifier stamped on every reply.
func (s *Service) SessionID() string { return s.sessionID }

// Send runs one full conversation turn. Failures are folded into the reply's
// status field rather than returned, so the handler always has a response
// body to serialize.
func (s *Service) Send(ctx context.Context, userQuery string) chat.ResponseDetails {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := chat.ResponseDetails{
		SessionID: s.sessionID,
		Provider:  s.llm.Provider(),
		Model:     s.llm.Model(),
		Status:    chat.StatusError,
	}

	s.append(llm.RoleUser, userQuery)

	started := time.Now()
	first, err := s.llm.Complete(ctx, s.history)
	elapsed := time.Since(started)
	if err != nil {
		s.logger.Error("chat completion failed", "session_id", s.sessionID, "error", err)
		return details
	}
	s.append(llm.RoleAssistant, first.Content)

	reply, err := parseReply(first.Content)
	if err != nil {
		s.logger.Error("model reply is not valid JSON", "session_id", s.sessionID, "error", err)
		return details
	}

	details.Model = first.Model
	details.TokenUsage = &chat.TokenUsage{
		PromptTokens:     first.Usage.PromptTokens,
		CompletionTokens: first.Usage.CompletionTokens,
		TotalTokens:      first.Usage.TotalTokens,
	}
	details.LatencyMS = elapsed.Milliseconds()
	details.Status = chat.StatusOK

	if reply.SQL == "" {
		// The model answered directly without a query.
		details.SQL = chat.SQLPlaceholder
		details.Answer = reply.Answer
		return details
	}

	details.SQL = reply.SQL
	if !s.pause(ctx) {
		s.logger.Warn("chat turn canceled before follow-up call", "session_id", s.sessionID)
		details.Status = chat.StatusError
		return details
	}

	output := ""
	if result, err := s.data.Query(ctx, reply.SQL); err != nil {
		s.logger.Error("dataset query failed", "session_id", s.sessionID, "error", err)
	} else {
		output = result.Lines()
	}

	s.append(llm.RoleUser, fmt.Sprintf("SQL:\n%s\n\nOutput:\n%s", reply.SQL, output))

	started = time.Now()
	second, err := s.llm.Complete(ctx, s.history)
	followUp := time.Since(started)
	if err != nil {
		s.logger.Error("follow-up completion failed", "session_id", s.sessionID, "error", err)
		details.Status = chat.StatusError
		return details
	}
	s.append(llm.RoleAssistant, second.Content)

	if answer, err := parseReply(second.Content); err != nil {
		s.logger.Error("follow-up reply is not valid JSON", "session_id", s.sessionID, "error", err)
		details.Status = chat.StatusError
	} else if answer.Answer != "" {
		details.Answer = answer.Answer
	}

	total := details.TokenUsage.Add(second.Usage)
	details.TokenUsage = &total
	details.LatencyMS += s.delay.Milliseconds() + followUp.Milliseconds()
	return details
}

type modelReply struct {
	SQL    string `json:"SQL"`
	Answer string `json:"Answer"`
}

// parseReply decodes the model output, tolerating markdown code fences
// around the JSON.
func parseReply(content string) (modelReply, error) {
	var reply modelReply
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(content, ""))
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return modelReply{}, fmt.Errorf("decode model reply: %w", err)
	}
	return reply, nil
}

// pause waits the configured delay between the two model calls. Returns
// false when the context is canceled first.
func (s *Service) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) append(role, content string) {
	s.history = append(s.history, llm.Message{Role: role, Content: content})
	s.persistLog()
}

func (s *Service) persistLog() {
	if s.sessions == nil {
		return
	}
	entries := make([]store.LogEntry, len(s.history))
	for i, msg := range s.history {
		entries[i] = store.LogEntry{Role: msg.Role, Content: msg.Content}
	}
	if err := s.sessions.SaveLog(s.sessionID, entries); err != nil {
		s.logger.Error("failed to persist message log", "session_id", s.sessionID, "error", err)
	}
}
