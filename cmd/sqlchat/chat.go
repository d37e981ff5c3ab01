// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/sqlchat/sqlchat/internal/protocol"
	"github.com/sqlchat/sqlchat/internal/render"
	"github.com/sqlchat/sqlchat/internal/session"
	"github.com/sqlchat/sqlchat/internal/transport"
)

func newChatCmd() *cobra.Command {
	var (
		serverURL string
		timeout   int
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := transport.NewClient(serverURL, time.Duration(timeout)*time.Second)
			program := tea.NewProgram(initChat(client), tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the sqlchat API server")
	cmd.Flags().IntVar(&timeout, "timeout", 120, "request timeout in seconds")
	return cmd
}

type chatStyles struct {
	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	sql            lipgloss.Style
	meta           lipgloss.Style
	errText        lipgloss.Style
	raw            lipgloss.Style
	spinner        lipgloss.Style
	counterWarn    lipgloss.Style
	counterOver    lipgloss.Style
	muted          lipgloss.Style
}

func defaultChatStyles() chatStyles {
	return chatStyles{
		userLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		assistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		sql:            lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		meta:           lipgloss.NewStyle().Faint(true),
		errText:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		raw:            lipgloss.NewStyle().Faint(true),
		spinner:        lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		counterWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		counterOver:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		muted:          lipgloss.NewStyle().Faint(true),
	}
}

// markdownHolder lets the session renderer pick up the current glamour
// renderer after terminal resizes.
type markdownHolder struct {
	renderer *glamour.TermRenderer
}

func (h *markdownHolder) render(content string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = content
			err = nil
		}
	}()
	if h.renderer == nil {
		return content, nil
	}
	return h.renderer.Render(content)
}

func (h *markdownHolder) resize(width int) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		h.renderer = renderer
	}
}

// chatModel is the bubbletea model for the interactive session.
type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    chatStyles
	markdown  *markdownHolder

	chat   *session.Session
	client *transport.Client

	inputErr string
	width    int
	height   int
	ready    bool
}

type outcomeMsg protocol.Outcome

func initChat(client *transport.Client) chatModel {
	styles := defaultChatStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about your data... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 0
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	markdown := &markdownHolder{}
	markdown.resize(76)

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		markdown:  markdown,
		chat:      session.New(render.New(render.WithMarkdown(markdown.render))),
		client:    client,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleSubmit()
		}

		if !m.chat.Busy() {
			m.inputErr = ""
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}

		m.textinput.Width = msg.Width - 4
		m.markdown.resize(msg.Width - 8)
		m.viewport.SetContent(m.renderTranscript())

	case spinner.TickMsg:
		if m.chat.Busy() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case outcomeMsg:
		m.chat.Complete(protocol.Outcome(msg))
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	submission, err := m.chat.Submit(m.textinput.Value())
	if err != nil {
		switch err {
		case session.ErrEmptyInput, session.ErrBusy:
			// Nothing to do; the input stays as-is.
		default:
			m.inputErr = err.Error()
		}
		return m, nil
	}

	m.inputErr = ""
	m.textinput.Reset()
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, m.sendMessage(submission.Text))
}

func (m chatModel) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(m.client.Send(context.Background(), text))
	}
}

func (m chatModel) renderTranscript() string {
	var sb strings.Builder
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	for _, msg := range m.chat.Messages() {
		if msg.Role == session.RoleUser {
			sb.WriteString(m.styles.userLabel.Render("You") + "\n")
		} else {
			sb.WriteString(m.styles.assistantLabel.Render("sqlchat") + "\n")
		}
		for _, section := range msg.Sections {
			sb.WriteString(m.renderSection(section, width))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m chatModel) renderSection(section render.Section, width int) string {
	switch s := section.(type) {
	case render.AnswerSection:
		return s.Markup + "\n"
	case render.SQLSection:
		return m.styles.sql.Render("SQL: "+wordwrap.String(s.Query, width-6)) + "\n"
	case render.ErrorSection:
		return m.styles.errText.Render(wordwrap.String(s.Message, width)) + "\n"
	case render.RawSection:
		return m.styles.raw.Render(wordwrap.String(s.Payload, width)) + "\n"
	case render.MetadataSection:
		return m.styles.meta.Render(formatMetadata(s)) + "\n"
	}
	return ""
}

func formatMetadata(s render.MetadataSection) string {
	parts := []string{string(s.Status)}
	if s.Provider != "" {
		parts = append(parts, s.Provider)
	}
	if s.Model != "" {
		parts = append(parts, s.Model)
	}
	if s.Tokens != nil {
		parts = append(parts, fmt.Sprintf("tokens %d+%d=%d", s.Tokens.Prompt, s.Tokens.Completion, s.Tokens.Total))
	}
	return strings.Join(parts, " · ")
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	chatView := m.viewport.View()
	if m.chat.Busy() {
		chatView += "\n" + m.spinner.View() + m.styles.muted.Render(" waiting for reply...")
	}
	if m.inputErr != "" {
		chatView += "\n" + m.styles.errText.Render(m.inputErr)
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	inputArea := inputStyle.Render(m.textinput.View())

	footer := m.styles.muted.Render("Enter: send • Ctrl+C: exit  ") + m.renderCounter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.assistantLabel.Render(" sqlchat "),
		chatView,
		inputArea,
		footer,
	)
}

// renderCounter paints the live character counter, colored by how close the
// draft is to the input limit.
func (m chatModel) renderCounter() string {
	draft := m.textinput.Value()
	counter := fmt.Sprintf("%d/%d", utf8.RuneCountInString(draft), session.MaxInputRunes)
	switch session.LevelFor(draft) {
	case session.LevelExceeded:
		return m.styles.counterOver.Render(counter)
	case session.LevelWarning:
		return m.styles.counterWarn.Render(counter)
	default:
		return m.styles.muted.Render(counter)
	}
}
