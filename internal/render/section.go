// Package render turns a classified reply envelope into the ordered display
// sections the UI paints. Sections are the only unit a client ever shows, so
// any front end painting them in order produces the same conversation.
package render

import "github.com/sqlchat/sqlchat/internal/protocol"

// Section is one self-contained piece of rendered output.
type Section interface {
	section()
}

// AnswerSection holds the natural-language answer converted to display
// markup by the injected markdown capability.
type AnswerSection struct {
	Markup string
}

// SQLSection holds the generated query as escaped literal text.
type SQLSection struct {
	Query string
}

// MetadataSection closes every reply with provider/model/status and token
// accounting, so the numbers stay visible on failures too.
type MetadataSection struct {
	Provider string
	Model    string
	Status   protocol.Status
	Tokens   *protocol.TokenUsage
}

// ErrorSection holds an escaped human-readable failure explanation.
type ErrorSection struct {
	Message string
}

// RawSection holds the escaped, pretty-printed body of a reply whose shape
// was not recognized.
type RawSection struct {
	Payload string
}

func (AnswerSection) section()   {}
func (SQLSection) section()      {}
func (MetadataSection) section() {}
func (ErrorSection) section()    {}
func (RawSection) section()      {}
