// Package session owns the client-side conversation state machine: input
// validation, the single in-flight request, and the append-only message log.
package session

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sqlchat/sqlchat/internal/protocol"
	"github.com/sqlchat/sqlchat/internal/render"
)

// State is the session's input lifecycle phase.
type State int

const (
	// Idle accepts submissions.
	Idle State = iota
	// AwaitingResponse blocks submissions until the pending request resolves.
	AwaitingResponse
)

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Input limits. The hard limit rejects the submission outright; the warning
// threshold only changes the cosmetic level of the live character counter.
const (
	MaxInputRunes  = 2000
	WarnInputRunes = 1900
)

var (
	ErrEmptyInput   = errors.New("message is empty")
	ErrInputTooLong = errors.New("message exceeds the 2000 character limit")
	ErrBusy         = errors.New("a request is already in flight")
)

// CountLevel is the cosmetic severity of the live character counter.
type CountLevel int

const (
	LevelNormal CountLevel = iota
	LevelWarning
	LevelExceeded
)

// LevelFor reports the counter severity for the given draft text.
func LevelFor(text string) CountLevel {
	switch n := utf8.RuneCountInString(text); {
	case n > MaxInputRunes:
		return LevelExceeded
	case n >= WarnInputRunes:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// Message is one immutable entry in the session log.
type Message struct {
	ID        string
	Role      Role
	Sections  []render.Section
	Timestamp time.Time
}

// Submission is an accepted user message: the log entry plus the exact text
// to hand to the transport.
type Submission struct {
	Message Message
	Text    string
}

// Session serializes the conversation: one pending request at a time, every
// completion restoring Idle exactly once. It is driven from a single
// event loop and performs no locking of its own.
type Session struct {
	state    State
	renderer *render.Renderer
	log      []Message
	now      func() time.Time
}

// New builds an idle session that renders replies with the given renderer.
func New(renderer *render.Renderer) *Session {
	return &Session{renderer: renderer, now: time.Now}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool { return s.state == AwaitingResponse }

// Messages returns a copy of the log in append order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.log))
	copy(out, s.log)
	return out
}

// Submit validates the draft and, when accepted, appends the user message and
// enters AwaitingResponse. Rejections leave the session untouched: no log
// entry, no state change, and no transport call may be issued by the caller.
func (s *Session) Submit(text string) (Submission, error) {
	if s.state != Idle {
		return Submission{}, ErrBusy
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Submission{}, ErrEmptyInput
	}
	if utf8.RuneCountInString(trimmed) > MaxInputRunes {
		return Submission{}, ErrInputTooLong
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Sections:  []render.Section{render.AnswerSection{Markup: render.Escape(trimmed)}},
		Timestamp: s.now(),
	}
	s.log = append(s.log, msg)
	s.state = AwaitingResponse
	return Submission{Message: msg, Text: trimmed}, nil
}

// Complete consumes the transport outcome for the pending request. Every
// outcome, success or failure, appends exactly one assistant message and
// returns the session to Idle; there is no path that leaves it awaiting.
func (s *Session) Complete(outcome protocol.Outcome) Message {
	env := protocol.Classify(outcome)
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Sections:  s.renderer.Render(env),
		Timestamp: s.now(),
	}
	s.log = append(s.log, msg)
	s.state = Idle
	return msg
}
