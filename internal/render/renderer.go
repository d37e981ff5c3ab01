package render

import (
	"bytes"
	"encoding/json"
	"html"

	"github.com/sqlchat/sqlchat/internal/protocol"
)

// MarkdownFunc converts restricted markdown to display markup. Implementations
// are expected to be injection-safe for their target surface; when rendering
// fails or no capability is installed, the renderer falls back to escaped
// plain text.
type MarkdownFunc func(text string) (string, error)

// Renderer produces the ordered section sequence for an envelope.
type Renderer struct {
	markdown MarkdownFunc
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMarkdown installs the markdown capability used for answer text.
func WithMarkdown(fn MarkdownFunc) Option {
	return func(r *Renderer) { r.markdown = fn }
}

// New builds a Renderer. Without options, answer text is escaped verbatim.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render maps an envelope onto its display sections. The ordering is fixed:
// error or raw fallback first when applicable, answer before sql otherwise,
// and the metadata section always last.
func (r *Renderer) Render(env protocol.Envelope) []Section {
	meta := MetadataSection{
		Provider: env.Metadata.Provider,
		Model:    env.Metadata.Model,
		Status:   env.Status,
		Tokens:   env.Metadata.TokenUsage,
	}

	if env.Status == protocol.StatusError {
		return []Section{ErrorSection{Message: Escape(env.Err)}, meta}
	}

	if env.UnknownShape {
		return []Section{RawSection{Payload: Escape(prettyJSON(env.Raw))}, meta}
	}

	var sections []Section
	if env.Answer != "" {
		sections = append(sections, AnswerSection{Markup: r.renderAnswer(env.Answer)})
	}
	if env.SQL != "" {
		sections = append(sections, SQLSection{Query: Escape(env.SQL)})
	}
	return append(sections, meta)
}

func (r *Renderer) renderAnswer(text string) string {
	if r.markdown != nil {
		if markup, err := r.markdown(text); err == nil {
			return markup
		}
	}
	return Escape(text)
}

// Escape neutralizes text for embedding in markup output. It covers the five
// characters the protocol requires: & < > " '.
func Escape(text string) string {
	return html.EscapeString(text)
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
